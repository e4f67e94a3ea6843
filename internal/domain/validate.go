package domain

// Validate filters records to those with both coordinates present and inside
// the configured bounds, preserving input order. The input slice is never
// modified. Malformed bounds return a *ConfigurationError. Per-record
// rejection is silent; callers can diff input and output lengths for
// diagnostics.
func Validate(records []ObservationRecord, bounds ValidRange) ([]ObservationRecord, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	kept := make([]ObservationRecord, 0, len(records))
	for _, r := range records {
		if bounds.Contains(r) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
