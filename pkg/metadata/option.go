package metadata

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Option keys holding an image reference.
const (
	WorkspaceOptionsKey       = "workspaceOptions"
	ExternalGradingOptionsKey = "externalGradingOptions"
	ImageField                = "image"
)

//go:embed schemas/image-option.schema.json
var imageOptionSchema []byte

var (
	optionSchemaOnce sync.Once
	optionSchema     *gojsonschema.Schema
	optionSchemaErr  error
)

func compiledOptionSchema() (*gojsonschema.Schema, error) {
	optionSchemaOnce.Do(func() {
		optionSchema, optionSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(imageOptionSchema))
	})
	return optionSchema, optionSchemaErr
}

// ValidateOption checks that the member under key is an object carrying a
// non-empty string image field.
func (r *Record) ValidateOption(key string) error {
	raw, ok := r.Get(key)
	if !ok {
		return fmt.Errorf("key %q not found", key)
	}
	sch, err := compiledOptionSchema()
	if err != nil {
		return fmt.Errorf("compile option schema: %w", err)
	}
	result, err := sch.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "(root)" || field == "" {
				field = key
			} else {
				field = key + "." + field
			}
			problems = append(problems, fmt.Sprintf("%s: %s", field, desc.Description()))
		}
		return fmt.Errorf("invalid %s: %s", key, strings.Join(problems, "; "))
	}
	return nil
}

// Image returns the image reference stored under the option key.
func (r *Record) Image(key string) (string, error) {
	if err := r.ValidateOption(key); err != nil {
		return "", err
	}
	opt, err := r.Object(key)
	if err != nil {
		return "", err
	}
	return opt.String(ImageField)
}

// SetImage replaces the image reference under the option key, leaving every
// other member of the option untouched.
func (r *Record) SetImage(key, image string) error {
	if err := r.ValidateOption(key); err != nil {
		return err
	}
	opt, err := r.Object(key)
	if err != nil {
		return err
	}
	if err := opt.SetString(ImageField, image); err != nil {
		return err
	}
	return r.SetObject(key, opt)
}
