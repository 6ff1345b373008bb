package validation

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/yungbote/instrument-catalog/internal/domain/catalog"
)

type fakeCategories map[int]bool

func (f fakeCategories) Exists(_ context.Context, id int) (bool, error) {
	return f[id], nil
}

type failingCategories struct{}

func (failingCategories) Exists(context.Context, int) (bool, error) {
	return false, errors.New("db down")
}

type fakeImages struct {
	final    map[string]string
	problems map[string][]string
	calls    int
}

func (f *fakeImages) Check(_ context.Context, raw string) (string, []string) {
	f.calls++
	if p, ok := f.problems[raw]; ok {
		return "", p
	}
	if final, ok := f.final[raw]; ok {
		return final, nil
	}
	return raw, nil
}

func newValidator(images *fakeImages) *Validator {
	if images == nil {
		images = &fakeImages{}
	}
	return New(fakeCategories{1: true, 2: true}, images, nil)
}

func validate(t *testing.T, v *Validator, in Input, opts Options) *Result {
	t.Helper()
	res, err := v.Validate(context.Background(), in, opts)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return res
}

func TestValidateNormalizesValidPayload(t *testing.T) {
	v := newValidator(nil)
	res := validate(t, v, Input{
		"name":            "  Pedal \t  Harp ",
		"description":     "\n  A *large* harp.\n\n  Really   large. \n",
		"category_id":     float64(1),
		"alternate_names": []any{" Concert   Harp", "", "Orchestral Harp "},
	}, Options{Mode: ModeCreate})

	if !res.Valid() {
		t.Fatalf("expected valid, got %v", res.Errors)
	}
	rec := res.Record
	if *rec.Name != "Pedal Harp" {
		t.Fatalf("name = %q", *rec.Name)
	}
	if *rec.Description != "A *large* harp.\n\n  Really   large." {
		t.Fatalf("description = %q", *rec.Description)
	}
	if *rec.CategoryID != 1 {
		t.Fatalf("category = %d", *rec.CategoryID)
	}
	if !slices.Equal(rec.AlternateNames, []string{"Concert Harp", "Orchestral Harp"}) {
		t.Fatalf("alternate names = %v", rec.AlternateNames)
	}
	if rec.Image != nil {
		t.Fatalf("image should be unset, got %q", *rec.Image)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	v := newValidator(nil)
	cases := []struct {
		name string
		in   Input
		mode Mode
		want string
	}{
		{"create missing all", Input{}, ModeCreate, "Required data is missing: name, category_id, description"},
		{"create missing description", Input{"name": "Flute", "category_id": "2"}, ModeCreate, "Required data is missing: description"},
		{"create blank name", Input{"name": "   ", "category_id": "2", "description": "x"}, ModeCreate, "Required data is missing: name"},
		{"partial blank supplied", Input{"description": " "}, ModePartial, "Required data is missing: description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := validate(t, v, tc.in, Options{Mode: tc.mode})
			if res.Valid() || res.Errors[0] != tc.want {
				t.Fatalf("errors = %v, want first %q", res.Errors, tc.want)
			}
		})
	}

	res := validate(t, v, Input{"name": "Piccolo"}, Options{Mode: ModePartial})
	if !res.Valid() {
		t.Fatalf("partial with only name should be valid, got %v", res.Errors)
	}
	if res.Record.Description != nil || res.Record.AlternateNamesSet {
		t.Fatalf("partial record should only carry name: %+v", res.Record)
	}
}

func TestValidateLengths(t *testing.T) {
	v := newValidator(nil)
	long := strings.Repeat("é", 129)
	res := validate(t, v, Input{
		"name":            long,
		"description":     strings.Repeat("d", 16385),
		"category_id":     "1",
		"alternate_names": []any{strings.Repeat("a", 129)},
	}, Options{Mode: ModeCreate})
	want := []string{
		"Provided name is over the limit of 128 characters.",
		"Provided description is over the limit of 16384 characters.",
		`Alternate name "` + strings.Repeat("a", 129) + `" is over the limit of 128 characters.`,
	}
	if !slices.Equal(res.Errors, want) {
		t.Fatalf("errors = %v", res.Errors)
	}

	res = validate(t, v, Input{"name": strings.Repeat("é", 128), "category_id": "1", "description": "x"}, Options{Mode: ModeCreate})
	if !res.Valid() {
		t.Fatalf("128 characters must be accepted, got %v", res.Errors)
	}
}

func TestValidateAlternateNames(t *testing.T) {
	v := newValidator(nil)
	base := func(alts any) Input {
		return Input{"name": "Flute", "category_id": 2, "description": "d", "alternate_names": alts}
	}

	res := validate(t, v, base([]any{"FLUTE"}), Options{Mode: ModeCreate})
	if !slices.Contains(res.Errors, MsgAltIncludesName) {
		t.Fatalf("primary name: errors = %v", res.Errors)
	}

	res = validate(t, v, base([]any{"Fife", "fife"}), Options{Mode: ModeCreate})
	if !slices.Contains(res.Errors, MsgAltDuplicates) {
		t.Fatalf("duplicates: errors = %v", res.Errors)
	}

	eleven := make([]any, 11)
	for i := range eleven {
		eleven[i] = string(rune('A' + i))
	}
	res = validate(t, v, base(eleven), Options{Mode: ModeCreate})
	if !slices.Equal(res.Errors, []string{MsgAltTooMany}) {
		t.Fatalf("too many: errors = %v", res.Errors)
	}

	for _, bad := range []any{"Fife", nil, map[string]any{"a": 1}} {
		res = validate(t, v, base(bad), Options{Mode: ModeCreate})
		if !slices.Equal(res.Errors, []string{MsgAltNotArray}) {
			t.Fatalf("non-array %v: errors = %v", bad, res.Errors)
		}
	}

	res = validate(t, v, Input{"alternate_names": []any{}}, Options{Mode: ModePartial})
	if !res.Valid() || !res.Record.AlternateNamesSet || len(res.Record.AlternateNames) != 0 {
		t.Fatalf("empty list should clear: %+v %v", res.Record, res.Errors)
	}
}

func TestValidatePrimaryNameUsesExisting(t *testing.T) {
	v := newValidator(nil)
	existing := &catalog.Instrument{ID: 7, Name: "Lever Harp", AlternateNames: []catalog.AlternateName{{Name: "Celtic Harp"}}}

	res := validate(t, v, Input{"alternate_names": []any{"lever harp"}}, Options{Mode: ModePartial, Existing: existing})
	if !slices.Equal(res.Errors, []string{MsgAltIncludesName}) {
		t.Fatalf("errors = %v", res.Errors)
	}

	res = validate(t, v, Input{"name": "Celtic Harp"}, Options{Mode: ModePartial, Existing: existing})
	if !slices.Equal(res.Errors, []string{MsgAltIncludesName}) {
		t.Fatalf("rename onto kept alternate name: errors = %v", res.Errors)
	}
}

func TestValidateFullEditIgnoresStoredAlternateNames(t *testing.T) {
	v := newValidator(nil)
	existing := &catalog.Instrument{ID: 7, Name: "Lever Harp", AlternateNames: []catalog.AlternateName{{Name: "Celtic Harp"}}}
	form := url.Values{"name": {"Celtic Harp"}, "category_id": {"1"}, "description": {"d"}}

	res := validate(t, v, FormInput(form), Options{Mode: ModeCreate, Existing: existing})
	if !res.Valid() {
		t.Fatalf("full edit without alternate names should be valid, errors = %v", res.Errors)
	}
	if len(res.Record.AlternateNames) != 0 {
		t.Fatalf("alternate names = %v, want none", res.Record.AlternateNames)
	}

	form.Set(FormAltNameKey(0), "celtic harp")
	res = validate(t, v, FormInput(form), Options{Mode: ModeCreate, Existing: existing})
	if !slices.Equal(res.Errors, []string{MsgAltIncludesName}) {
		t.Fatalf("submitted alternate name equal to new name: errors = %v", res.Errors)
	}
}

func TestValidateCategory(t *testing.T) {
	v := newValidator(nil)
	for _, raw := range []any{"abc", 1.5, 99, "-1"} {
		res := validate(t, v, Input{"name": "Oboe", "description": "d", "category_id": raw}, Options{Mode: ModeCreate})
		if !slices.Equal(res.Errors, []string{MsgInvalidCategoryID}) {
			t.Fatalf("category %v: errors = %v", raw, res.Errors)
		}
	}
	res := validate(t, v, Input{"category_id": " 2 "}, Options{Mode: ModePartial})
	if !res.Valid() || *res.Record.CategoryID != 2 {
		t.Fatalf("decimal string: %+v %v", res.Record, res.Errors)
	}

	failing := New(failingCategories{}, nil, nil)
	if _, err := failing.Validate(context.Background(), Input{"category_id": "1"}, Options{Mode: ModePartial}); err == nil {
		t.Fatalf("expected lookup error")
	}
}

func TestValidateImage(t *testing.T) {
	images := &fakeImages{
		final:    map[string]string{"http://img.test/old.png": "http://img.test/new.png"},
		problems: map[string][]string{"http://img.test/page.html": {"Image URL: The image must be a jpg, png, or gif."}},
	}
	v := newValidator(images)

	res := validate(t, v, Input{"image": " http://img.test/old.png "}, Options{Mode: ModePartial})
	if !res.Valid() || *res.Record.Image != "http://img.test/new.png" {
		t.Fatalf("redirected image: %+v %v", res.Record, res.Errors)
	}

	res = validate(t, v, Input{"image": "http://img.test/page.html"}, Options{Mode: ModePartial})
	if !slices.Equal(res.Errors, []string{"Image URL: The image must be a jpg, png, or gif."}) {
		t.Fatalf("errors = %v", res.Errors)
	}

	calls := images.calls
	res = validate(t, v, Input{"image": "  "}, Options{Mode: ModePartial})
	if !res.Valid() || res.Record.Image == nil || *res.Record.Image != "" {
		t.Fatalf("blank image should clear: %+v %v", res.Record, res.Errors)
	}
	if images.calls != calls {
		t.Fatalf("blank image must not be probed")
	}
}

func TestValidateCollectsEverything(t *testing.T) {
	v := newValidator(nil)
	res := validate(t, v, Input{
		"name":            "Drum",
		"alternate_names": []any{"drum", "Tom", "tom"},
		"category_id":     "x",
	}, Options{Mode: ModeCreate})
	want := []string{
		"Required data is missing: description",
		MsgAltIncludesName,
		MsgAltDuplicates,
		MsgInvalidCategoryID,
	}
	if !slices.Equal(res.Errors, want) {
		t.Fatalf("errors = %v, want %v", res.Errors, want)
	}
}

func TestFormInput(t *testing.T) {
	form := url.Values{
		"name":        {"Flute"},
		"description": {"Silver"},
		"category_id": {"2"},
		"alt_name_0":  {"Transverse flute"},
		"alt_name_1":  {""},
		"alt_name_2":  {"Concert flute"},
		"alt_name_4":  {"ignored after gap"},
	}
	in := FormInput(form)
	res := validate(t, newValidator(nil), in, Options{Mode: ModeCreate})
	if !res.Valid() {
		t.Fatalf("errors = %v", res.Errors)
	}
	if !slices.Equal(res.Record.AlternateNames, []string{"Transverse flute", "Concert flute"}) {
		t.Fatalf("alternate names = %v", res.Record.AlternateNames)
	}

	noAlts := FormInput(url.Values{"name": {"Flute"}})
	if _, ok := noAlts[FieldAlternateNames]; ok {
		t.Fatalf("alternate names should be absent without alt_name_0")
	}
}
