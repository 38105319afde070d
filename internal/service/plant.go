package service

import (
	"sync"

	"brewtemp/internal/config"
	"brewtemp/internal/hardware"
	"brewtemp/internal/models"
)

// Plant is the board shared by the device and simulator services. Its lock
// serializes every read-modify-write of relays and persisted state.
type Plant struct {
	mu    sync.Mutex
	board *hardware.Board
	cfg   config.DeviceConfiguration
}

func NewPlant(cfg config.DeviceConfiguration, board *hardware.Board) *Plant {
	return &Plant{board: board, cfg: cfg}
}

func (p *Plant) Board() *hardware.Board { return p.board }

func (p *Plant) Config() config.DeviceConfiguration { return p.cfg }

// readings returns both probe temperatures and the probe fault codes.
func (p *Plant) readings() (ferm, freezer float64, faults []string) {
	ferm, err := p.board.Fermenter.Temperature()
	if err != nil {
		faults = append(faults, models.ErrCodeFermenterProbe)
	}
	freezer, err = p.board.Freezer.Temperature()
	if err != nil {
		faults = append(faults, models.ErrCodeFreezerProbe)
	}
	return ferm, freezer, faults
}
