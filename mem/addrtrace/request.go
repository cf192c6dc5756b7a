// Package addrtrace synthesizes page reference traces and keeps them in a
// trace directory.
package addrtrace

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sarchlab/mmusim/sim"
)

// Algorithm names a trace generation algorithm.
type Algorithm string

// The supported algorithms.
const (
	Random              Algorithm = "aleatorio"
	SequentialWithJumps Algorithm = "sequencial_com_saltos"
	WorkingSet          Algorithm = "working_set"
)

// Defaults of the optional parameters.
const (
	DefaultJumpProb  = 10
	DefaultSetSize   = 50
	DefaultInSetProb = 90
	DefaultPhase     = 100
)

// MaxSetSize is the largest accepted working set. The set is redrawn every
// phase, which costs memory in proportion to its size.
const MaxSetSize = 1 << 16

var fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+\.(in|txt)$`)

// ValidateName checks that name is a plain trace file name.
func ValidateName(name string) error {
	if !fileNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid trace file name %q",
			sim.ErrValidation, name)
	}

	return nil
}

// A Request asks for a trace to be generated and stored. Optional fields
// that are nil take their defaults.
type Request struct {
	Algoritmo    string  `json:"algoritmo"`
	NomeArquivo  string  `json:"nome_arquivo"`
	NumEnderecos int     `json:"num_enderecos"`
	MaxPagina    int64   `json:"max_pagina"`
	ProbSalto    *int    `json:"prob_salto,omitempty"`
	TamanhoSet   *int    `json:"tamanho_set,omitempty"`
	ProbNoSet    *int    `json:"prob_no_set,omitempty"`
	Fase         *int    `json:"fase,omitempty"`
	Seed         *uint64 `json:"seed,omitempty"`
}

// Config is a validated generation request.
type Config struct {
	Algorithm    Algorithm
	FileName     string
	NumAddresses int
	MaxPage      uint64
	JumpProb     int
	SetSize      int
	InSetProb    int
	Phase        int
	Seed         uint64
}

// Validate checks the request and fills in defaults. Without a seed, one is
// derived from the current time.
func (r Request) Validate() (Config, error) {
	c := Config{
		Algorithm:    Algorithm(r.Algoritmo),
		FileName:     r.NomeArquivo,
		NumAddresses: r.NumEnderecos,
		JumpProb:     intOr(r.ProbSalto, DefaultJumpProb),
		SetSize:      intOr(r.TamanhoSet, DefaultSetSize),
		InSetProb:    intOr(r.ProbNoSet, DefaultInSetProb),
		Phase:        intOr(r.Fase, DefaultPhase),
	}

	switch c.Algorithm {
	case Random, SequentialWithJumps, WorkingSet:
	default:
		return Config{}, fmt.Errorf("%w: unknown algorithm %q",
			sim.ErrValidation, r.Algoritmo)
	}

	if err := ValidateName(r.NomeArquivo); err != nil {
		return Config{}, err
	}

	if r.NumEnderecos <= 0 {
		return Config{}, fmt.Errorf("%w: num_enderecos must be positive, got %d",
			sim.ErrValidation, r.NumEnderecos)
	}

	if r.MaxPagina < 0 {
		return Config{}, fmt.Errorf("%w: max_pagina must not be negative, got %d",
			sim.ErrValidation, r.MaxPagina)
	}

	c.MaxPage = uint64(r.MaxPagina)

	if err := checkPercent("prob_salto", c.JumpProb); err != nil {
		return Config{}, err
	}

	if err := checkPercent("prob_no_set", c.InSetProb); err != nil {
		return Config{}, err
	}

	if c.SetSize < 0 || c.SetSize > MaxSetSize {
		return Config{}, fmt.Errorf("%w: tamanho_set must be within [0, %d], got %d",
			sim.ErrValidation, MaxSetSize, c.SetSize)
	}

	if c.Phase < 1 {
		return Config{}, fmt.Errorf("%w: fase must be at least 1, got %d",
			sim.ErrValidation, c.Phase)
	}

	if r.Seed != nil {
		c.Seed = *r.Seed
	} else {
		c.Seed = uint64(time.Now().UnixNano())
	}

	return c, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}

	return *v
}

func checkPercent(name string, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be within [0, 100], got %d",
			sim.ErrValidation, name, v)
	}

	return nil
}
