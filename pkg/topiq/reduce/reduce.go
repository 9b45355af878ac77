// Package reduce defines the dimensionality-reduction collaborator
// contract and a PCA implementation.
package reduce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Reducer projects an n×d matrix to n×k, k ≤ d, preserving row
// order. The engine derives components and neighbors from the valid
// sample count; reducers without a neighborhood notion ignore
// neighbors.
type Reducer interface {
	FitTransform(embeddings [][]float64, components, neighbors int) ([][]float64, error)
}

// PCA projects rows onto the leading principal components of the
// column-centered input.
type PCA struct{}

// FitTransform centers the columns, factorizes with a thin SVD and
// projects onto the first `components` right singular vectors.
func (PCA) FitTransform(embeddings [][]float64, components, _ int) ([][]float64, error) {
	n := len(embeddings)
	if n == 0 {
		return nil, fmt.Errorf("pca: empty input")
	}
	dim := len(embeddings[0])
	if components <= 0 || components > dim {
		return nil, fmt.Errorf("pca: %d components out of range for width %d", components, dim)
	}
	for i, row := range embeddings {
		if len(row) != dim {
			return nil, fmt.Errorf("pca: row %d has width %d, want %d", i, len(row), dim)
		}
	}

	data := make([]float64, n*dim)
	for i, row := range embeddings {
		copy(data[i*dim:(i+1)*dim], row)
	}
	x := mat.NewDense(n, dim, data)

	means := make([]float64, dim)
	for j := 0; j < dim; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x.At(i, j)
		}
		means[j] = sum / float64(n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			x.Set(i, j, x.At(i, j)-means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("pca: SVD factorization failed")
	}
	var vt mat.Dense
	svd.VTo(&vt)

	// vt columns are the principal directions.
	pc := mat.NewDense(dim, components, nil)
	for k := 0; k < components; k++ {
		for j := 0; j < dim; j++ {
			pc.Set(j, k, vt.At(j, k))
		}
	}

	var projected mat.Dense
	projected.Mul(x, pc)

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, components)
		for k := 0; k < components; k++ {
			row[k] = projected.At(i, k)
		}
		out[i] = row
	}
	return out, nil
}
