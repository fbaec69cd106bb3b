// Package bytemix implements the byte-level geometric mixer and its zoo of
// byte predictors (PPM façade, match model, word model, sparse model).
package bytemix

import "github.com/fumin/cmcore/ppm"

// Predictor is the capability Mixer depends on: produce a 256-entry
// probability distribution for the next byte, and observe the byte that
// actually occurred.
type Predictor interface {
	Predict(probs *[256]float64)
	Update(symbol byte)
}

// PpmPredictor is a thin façade: Predict forwards to ppm.Model's
// distribution-extraction interface, Update forwards to its model-update
// interface. It never calls ppm.Model.Encode/Decode, keeping the
// encode/decode exclusion bitmap and the distribution-extraction exclusion
// bitmap (owned internally by ppm.Model) on separate paths.
type PpmPredictor struct {
	Model *ppm.Model
}

// NewPpmPredictor returns a PpmPredictor wrapping a freshly constructed
// ppm.Model of the given order.
func NewPpmPredictor(order int) *PpmPredictor {
	return &PpmPredictor{Model: ppm.New(order)}
}

func (p *PpmPredictor) Predict(probs *[256]float64) {
	p.Model.PredictDistribution(probs)
}

func (p *PpmPredictor) Update(symbol byte) {
	p.Model.UpdateModel(symbol)
}
