package model

type Exercise struct {
	ID     int
	Name   string
	Sets   int
	Reps   int
	Weight *float64
}

func (e Exercise) HasWeight() bool {
	return e.Weight != nil
}
