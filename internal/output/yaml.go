package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/cherrypick/internal/pick"
)

// YAMLFormatter writes the report document in its canonical YAML form.
type YAMLFormatter struct{}

// Format writes r as YAML.
func (f *YAMLFormatter) Format(r *pick.Report, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
