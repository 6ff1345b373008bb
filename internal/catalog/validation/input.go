package validation

import (
	"net/url"
	"strconv"
)

const (
	FieldName           = "name"
	FieldDescription    = "description"
	FieldImage          = "image"
	FieldCategoryID     = "category_id"
	FieldAlternateNames = "alternate_names"

	formAltNamePrefix = "alt_name_"
)

// Input is a decoded request payload. JSON bodies decode straight into it;
// FormInput adapts a browser form.
type Input map[string]any

func (in Input) has(key string) bool {
	_, ok := in[key]
	return ok
}

// FormInput reads the scalar fields and the alt_name_0..alt_name_9 inputs.
// Alternate names are only considered supplied when alt_name_0 is present,
// and collection stops at the first absent index.
func FormInput(form url.Values) Input {
	in := Input{}
	for _, key := range []string{FieldName, FieldDescription, FieldImage, FieldCategoryID} {
		if vals, ok := form[key]; ok && len(vals) > 0 {
			in[key] = vals[0]
		}
	}
	if _, ok := form[formAltNamePrefix+"0"]; ok {
		names := make([]any, 0, MaxFormAlternateNames)
		for i := 0; i < MaxFormAlternateNames; i++ {
			vals, ok := form[formAltNamePrefix+strconv.Itoa(i)]
			if !ok {
				break
			}
			if len(vals) > 0 {
				names = append(names, vals[0])
			}
		}
		in[FieldAlternateNames] = names
	}
	return in
}

// MaxFormAlternateNames is the number of alt_name_N inputs a form renders.
const MaxFormAlternateNames = 10

// FormAltNameKey is the form input name for the alternate name at index i.
func FormAltNameKey(i int) string {
	return formAltNamePrefix + strconv.Itoa(i)
}
