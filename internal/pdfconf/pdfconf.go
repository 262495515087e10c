// Package pdfconf builds the pdfcpu configuration shared by every package
// that loads or optimizes documents.
package pdfconf

import (
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var once sync.Once

// New returns a fresh relaxed-validation configuration. pdfcpu's on-disk
// configuration directory is disabled on first use so that nothing is
// written to the user's home directory.
func New() *model.Configuration {
	once.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
