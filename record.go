package presets

// Record is a preset record, mapping field names to values.
type Record map[string]any

// Clone returns a deep copy of the record. Nested maps and slices are
// duplicated so mutating the copy never reaches the original.
func (rec Record) Clone() Record {
	if rec == nil {
		return nil
	}

	return CopyFrom(rec)
}
