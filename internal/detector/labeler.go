// Package detector turns raw acceleration samples into motion label signals.
// Two interchangeable labelers are provided: a spectral one that labels every
// filled FFT window and a threshold one that labels every sample.
package detector

import (
	"fmt"
	"strings"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/spectral"
)

// Kind selects a labeler implementation.
type Kind string

const (
	KindSpectral  Kind = "fft"
	KindThreshold Kind = "threshold"
)

// Signal is one labeler output. Result is set by the spectral labeler only.
type Signal struct {
	Label  motion.Label
	Result *motion.ClassificationResult
}

// Labeler consumes samples in arrival order and occasionally emits a signal.
// Implementations are not safe for concurrent use.
type Labeler interface {
	Observe(s motion.Sample) (Signal, bool)
	Reset()
	Kind() Kind
}

// ParseKind validates a configured labeler name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSpectral, "spectral", "":
		return KindSpectral, nil
	case KindThreshold:
		return KindThreshold, nil
	default:
		return "", errors.New(fmt.Errorf("unknown detector %q", s)).
			Component("detector").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// New builds the labeler selected by kind.
func New(kind Kind, spectralCfg spectral.Config, thresholdCfg ThresholdConfig) (Labeler, error) {
	switch kind {
	case KindThreshold:
		return NewThreshold(thresholdCfg)
	default:
		return NewSpectral(spectralCfg)
	}
}
