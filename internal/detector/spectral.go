package detector

import (
	"github.com/tphakala/drivesense/internal/logger"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/spectral"
)

// Spectral labels each filled FFT window.
type Spectral struct {
	classifier *spectral.Classifier
	log        logger.Logger
}

// NewSpectral creates a spectral labeler.
func NewSpectral(cfg spectral.Config) (*Spectral, error) {
	c, err := spectral.NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return &Spectral{
		classifier: c,
		log:        logger.Global().Module("detector").Module("fft"),
	}, nil
}

// Observe buffers s and returns a signal when it completes a window. A
// window that fails classification is dropped and accumulation continues.
func (d *Spectral) Observe(s motion.Sample) (Signal, bool) {
	res, ok, err := d.classifier.Add(s)
	if err != nil {
		d.log.Warn("window classification failed", logger.Error(err))
		return Signal{}, false
	}
	if !ok {
		return Signal{}, false
	}
	d.log.Trace("window classified",
		logger.String("label", res.Label.String()),
		logger.Float64("energy", res.Energy),
		logger.Float64("dominant_hz", res.DominantFrequency),
		logger.Float64("entropy", res.Entropy))
	return Signal{Label: res.Label, Result: &res}, true
}

// Reset clears the partially filled window.
func (d *Spectral) Reset() {
	d.classifier.Reset()
}

// Kind returns KindSpectral.
func (d *Spectral) Kind() Kind {
	return KindSpectral
}
