package utils

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultIDLength = 16

const (
	PrefixRun   = "run"
	PrefixBatch = "batch"
)

// NewID returns prefix_<nanoid>.
func NewID(prefix string) string {
	id, err := nanoid.New(DefaultIDLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewRunID() string   { return NewID(PrefixRun) }
func NewBatchID() string { return NewID(PrefixBatch) }
