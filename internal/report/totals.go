package report

// computeTotals sums the first row matching each total rule across all
// month columns. Rules whose row is absent leave the total nil.
func computeTotals(rules *Rules, rows []row) (Totals, error) {
	var t Totals
	for _, tr := range rules.Totals {
		for _, r := range rows {
			if !tr.re.MatchString(r.name) {
				continue
			}
			sum := 0.0
			for _, cell := range r.amounts {
				if cell.ok {
					sum += cell.value
				}
			}
			v := round2(sum)
			*t.field(tr.Key) = &v
			break
		}
	}

	if t.TotalOperatingIncome != nil && t.TotalCOGS != nil {
		v := round2(*t.TotalOperatingIncome - *t.TotalCOGS)
		t.RealRevenue = &v
	}

	var missing []string
	for _, key := range rules.RequiredTotals {
		if _, ok := t.Get(key); !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return t, parseErr(0, ErrMissingTotals, "required totals missing: %v", missing)
	}
	return t, nil
}
