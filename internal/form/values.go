package form

import "encoding/json"

// DecodeIfJSON decodes a string holding JSON. Any other string, and any
// value that is not a string, is returned unchanged.
func DecodeIfJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}

// PopulateValues sets values for fields by handle. Nested values for groups
// are given as maps keyed by child handle. Without force the values act as
// defaults beneath any current submission data; with force they are written
// into the current submission, creating one if needed.
func (f *Form) PopulateValues(values map[string]any, force bool) {
	if len(values) == 0 {
		return
	}
	if force {
		if f.submission == nil {
			f.submission = &Submission{FormHandle: f.Handle}
		}
		if f.submission.Data == nil {
			f.submission.Data = make(map[string]any)
		}
		mergeValues(f.submission.Data, values, f.knownHandles())
		return
	}
	if f.populated == nil {
		f.populated = make(map[string]any)
	}
	mergeValues(f.populated, values, f.knownHandles())
}

func (f *Form) knownHandles() map[string]bool {
	known := make(map[string]bool)
	for _, fd := range f.Fields() {
		known[fd.Handle] = true
	}
	return known
}

func mergeValues(dst, src map[string]any, known map[string]bool) {
	for k, v := range src {
		if known[k] {
			dst[k] = v
		}
	}
}

// Value returns the value of the top-level field handle: current submission
// data first, then populated values, then the field default.
func (f *Form) Value(handle string) any {
	if f.submission != nil {
		if v, ok := f.submission.Data[handle]; ok {
			return v
		}
	}
	if v, ok := f.populated[handle]; ok {
		return v
	}
	if fd := f.FieldByHandle(handle); fd != nil {
		return fd.DefaultValue
	}
	return nil
}

// FieldValue resolves the value for any field, following nested paths
// through group values.
func (f *Form) FieldValue(fd *Field) any {
	path := fd.Path()
	v := f.Value(path[0])
	for _, h := range path[1:] {
		m, ok := v.(map[string]any)
		if !ok {
			return fd.DefaultValue
		}
		v, ok = m[h]
		if !ok {
			return fd.DefaultValue
		}
	}
	if v == nil {
		return fd.DefaultValue
	}
	return v
}
