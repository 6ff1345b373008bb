// Package validation normalizes and checks instrument payloads coming from
// the JSON API and from browser forms.
package validation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/instrument-catalog/internal/domain/catalog"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type Mode int

const (
	// ModeCreate requires name, category_id and description.
	ModeCreate Mode = iota
	// ModePartial validates only the supplied fields.
	ModePartial
)

func (m Mode) String() string {
	if m == ModePartial {
		return "partial"
	}
	return "create"
}

const (
	MsgAltNotArray       = "`alternate_names` must be an array of strings."
	MsgAltIncludesName   = "Alternate names must not include the primary name."
	MsgAltDuplicates     = "Alternate names must not duplicate other alternate names."
	MsgAltTooMany        = "You can not specify more than 10 alternate names."
	MsgInvalidCategoryID = "An invalid category ID was provided."
)

func MsgMissing(fields []string) string {
	return "Required data is missing: " + strings.Join(fields, ", ")
}

func MsgTooLong(field string, limit int) string {
	return fmt.Sprintf("Provided %s is over the limit of %d characters.", field, limit)
}

func MsgAltTooLong(name string) string {
	return fmt.Sprintf("Alternate name %q is over the limit of %d characters.", name, catalog.MaxAlternateNameLength)
}

type CategoryChecker interface {
	Exists(ctx context.Context, id int) (bool, error)
}

type ImageChecker interface {
	Check(ctx context.Context, rawURL string) (string, []string)
}

type Options struct {
	Mode Mode
	// Existing is the instrument being edited, if any.
	Existing *catalog.Instrument
}

// Record is the normalized payload. Nil fields were not supplied.
type Record struct {
	Name        *string
	Description *string
	// Image is "" when the caller asked to clear it.
	Image      *string
	CategoryID *int
	// CategoryRaw keeps the supplied category text for re-rendering when it does not parse.
	CategoryRaw       *string
	AlternateNames    []string
	AlternateNamesSet bool
}

// Data is the JSON shape echoed back to clients, containing supplied fields only.
func (r Record) Data() map[string]any {
	out := map[string]any{}
	if r.Name != nil {
		out[FieldName] = *r.Name
	}
	if r.Description != nil {
		out[FieldDescription] = *r.Description
	}
	if r.Image != nil {
		out[FieldImage] = *r.Image
	}
	switch {
	case r.CategoryID != nil:
		out[FieldCategoryID] = *r.CategoryID
	case r.CategoryRaw != nil:
		out[FieldCategoryID] = *r.CategoryRaw
	}
	if r.AlternateNamesSet {
		out[FieldAlternateNames] = r.AlternateNames
	}
	return out
}

type Result struct {
	Record Record
	Errors []string
}

func (r *Result) Valid() bool { return r != nil && len(r.Errors) == 0 }

type Validator struct {
	categories CategoryChecker
	images     ImageChecker
	log        *logger.Logger
}

func New(categories CategoryChecker, images ImageChecker, baseLog *logger.Logger) *Validator {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Validator{
		categories: categories,
		images:     images,
		log:        baseLog.With("service", "InstrumentValidator"),
	}
}

// Validate normalizes in and runs every check, collecting all messages. The
// error is reserved for failures of the category lookup itself.
func (v *Validator) Validate(ctx context.Context, in Input, opts Options) (*Result, error) {
	res := &Result{}
	rec := &res.Record
	var errs []string

	if in.has(FieldName) {
		s := collapse(stringify(in[FieldName]))
		rec.Name = &s
	}
	if in.has(FieldDescription) {
		s := strings.TrimSpace(stringify(in[FieldDescription]))
		rec.Description = &s
	}
	if in.has(FieldImage) {
		s := collapse(stringify(in[FieldImage]))
		rec.Image = &s
	}
	categoryInvalid := false
	if in.has(FieldCategoryID) {
		s := collapse(stringify(in[FieldCategoryID]))
		rec.CategoryRaw = &s
		if s != "" {
			if id, err := strconv.Atoi(s); err == nil {
				rec.CategoryID = &id
			} else {
				categoryInvalid = true
			}
		}
	}
	if in.has(FieldAlternateNames) {
		names, ok := alternateNames(in[FieldAlternateNames])
		if !ok {
			errs = append(errs, MsgAltNotArray)
		}
		rec.AlternateNames = names
		rec.AlternateNamesSet = true
	} else if opts.Mode == ModeCreate {
		rec.AlternateNames = []string{}
	}

	// 1. required fields
	var missing []string
	for _, f := range []struct {
		name string
		val  *string
	}{
		{FieldName, rec.Name},
		{FieldCategoryID, rec.CategoryRaw},
		{FieldDescription, rec.Description},
	} {
		absent := f.val == nil
		blank := f.val != nil && *f.val == ""
		if blank || (absent && opts.Mode == ModeCreate) {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, MsgMissing(missing))
	}

	// 2. length ceilings
	for _, f := range []struct {
		name  string
		val   *string
		limit int
	}{
		{FieldName, rec.Name, catalog.MaxNameLength},
		{FieldDescription, rec.Description, catalog.MaxDescriptionLength},
		{FieldImage, rec.Image, catalog.MaxImageLength},
	} {
		if f.val != nil && runeLen(*f.val) > f.limit {
			errs = append(errs, MsgTooLong(f.name, f.limit))
		}
	}

	// 3-6. alternate names
	for _, n := range rec.AlternateNames {
		if runeLen(n) > catalog.MaxAlternateNameLength {
			errs = append(errs, MsgAltTooLong(n))
		}
	}
	primary := ""
	if rec.Name != nil && *rec.Name != "" {
		primary = *rec.Name
	} else if opts.Existing != nil {
		primary = opts.Existing.Name
	}
	// A partial rename must not collide with the names it already keeps. Full
	// updates replace the list, so only the submitted names count.
	effective := rec.AlternateNames
	if opts.Mode == ModePartial && !rec.AlternateNamesSet && opts.Existing != nil {
		effective = opts.Existing.AlternateNameList()
	}
	if primary != "" {
		for _, n := range effective {
			if strings.EqualFold(n, primary) {
				errs = append(errs, MsgAltIncludesName)
				break
			}
		}
	}
	seen := make(map[string]struct{}, len(rec.AlternateNames))
	for _, n := range rec.AlternateNames {
		key := strings.ToLower(n)
		if _, dup := seen[key]; dup {
			errs = append(errs, MsgAltDuplicates)
			break
		}
		seen[key] = struct{}{}
	}
	if len(rec.AlternateNames) > catalog.MaxAlternateNames {
		errs = append(errs, MsgAltTooMany)
	}

	// 7. category
	if categoryInvalid {
		errs = append(errs, MsgInvalidCategoryID)
	} else if rec.CategoryID != nil {
		ok, err := v.categoryExists(ctx, *rec.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("check category %d: %w", *rec.CategoryID, err)
		}
		if !ok {
			errs = append(errs, MsgInvalidCategoryID)
		}
	}

	// 8. image
	if rec.Image != nil && *rec.Image != "" && v.images != nil {
		final, problems := v.images.Check(ctx, *rec.Image)
		if len(problems) > 0 {
			errs = append(errs, problems...)
		} else if final != "" {
			rec.Image = &final
		}
	}

	res.Errors = errs
	if len(errs) > 0 {
		v.log.Debug("Instrument payload rejected", "mode", opts.Mode.String(), "error_count", len(errs))
	}
	return res, nil
}

func (v *Validator) categoryExists(ctx context.Context, id int) (bool, error) {
	if v.categories == nil {
		return true, nil
	}
	if id <= 0 {
		return false, nil
	}
	return v.categories.Exists(ctx, id)
}
