package topiq

import "math"

// embeddingValidation segregates valid rows from invalid ones,
// counting the invalid by category.
type embeddingValidation struct {
	valid   [][]float64
	indices []int

	invalidType int // empty or wrong-width rows
	nan         int
	inf         int
}

// validateEmbeddings checks every row for the expected width and
// finite values. The expected width is that of the first non-empty
// row.
func validateEmbeddings(rows [][]float64) embeddingValidation {
	var v embeddingValidation

	width := 0
	for _, row := range rows {
		if len(row) > 0 {
			width = len(row)
			break
		}
	}

	for idx, row := range rows {
		if len(row) == 0 || len(row) != width {
			v.invalidType++
			continue
		}
		bad := false
		for _, val := range row {
			if math.IsNaN(val) {
				v.nan++
				bad = true
				break
			}
			if math.IsInf(val, 0) {
				v.inf++
				bad = true
				break
			}
		}
		if bad {
			continue
		}
		v.valid = append(v.valid, row)
		v.indices = append(v.indices, idx)
	}
	return v
}
