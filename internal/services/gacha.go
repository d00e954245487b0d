package services

import (
	"github.com/mroth/weightedrand/v2"
)

// ServiceGacha is a thin wrapper around a weighted chooser. Weights are int64
// because entry counts are.
type ServiceGacha[T any] struct {
	chooser *weightedrand.Chooser[T, int64]
}

func NewServiceGacha[T any](choices []weightedrand.Choice[T, int64]) (*ServiceGacha[T], error) {
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, err
	}

	return &ServiceGacha[T]{chooser}, nil
}

func (service *ServiceGacha[T]) Pick() T {
	return service.chooser.Pick()
}
