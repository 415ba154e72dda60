package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/augur/pkg/domain/model"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vector scores 1", func(t *testing.T) {
		v := model.Embedding{0.3, -0.2, 0.9, 0.01}
		s, err := model.CosineSimilarity(v, v)
		gt.NoError(t, err).Required()
		gt.Bool(t, math.Abs(s-1.0) < 1e-9).True()
	})

	t.Run("opposite vector scores -1", func(t *testing.T) {
		v := model.Embedding{0.5, -1.5, 2.0}
		neg := model.Embedding{-0.5, 1.5, -2.0}
		s, err := model.CosineSimilarity(v, neg)
		gt.NoError(t, err).Required()
		gt.Bool(t, math.Abs(s+1.0) < 1e-9).True()
	})

	t.Run("symmetric", func(t *testing.T) {
		a := model.Embedding{0.1, 0.7, -0.3}
		b := model.Embedding{-0.4, 0.2, 0.5}
		ab, err := model.CosineSimilarity(a, b)
		gt.NoError(t, err).Required()
		ba, err := model.CosineSimilarity(b, a)
		gt.NoError(t, err).Required()
		gt.Value(t, ab).Equal(ba)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		s, err := model.CosineSimilarity(model.Embedding{1, 0}, model.Embedding{0, 1})
		gt.NoError(t, err).Required()
		gt.Value(t, s).Equal(0)
	})

	t.Run("zero vector on either side scores exactly 0", func(t *testing.T) {
		zero := model.Embedding{0, 0, 0}
		v := model.Embedding{0.1, 0.2, 0.3}

		s, err := model.CosineSimilarity(zero, v)
		gt.NoError(t, err).Required()
		gt.Value(t, s).Equal(0)

		s, err = model.CosineSimilarity(v, zero)
		gt.NoError(t, err).Required()
		gt.Value(t, s).Equal(0)

		s, err = model.CosineSimilarity(zero, zero)
		gt.NoError(t, err).Required()
		gt.Value(t, s).Equal(0)
		gt.Bool(t, math.IsNaN(s)).False()
	})

	t.Run("mismatched lengths fail", func(t *testing.T) {
		_, err := model.CosineSimilarity(model.Embedding{1, 2}, model.Embedding{1, 2, 3})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidEmbedding)).True()
	})

	t.Run("empty vectors fail", func(t *testing.T) {
		_, err := model.CosineSimilarity(nil, model.Embedding{1})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidEmbedding)).True()

		_, err = model.CosineSimilarity(model.Embedding{1}, model.Embedding{})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidEmbedding)).True()
	})

	t.Run("result is clamped into [-1, 1]", func(t *testing.T) {
		// Large parallel vectors can drift past 1.0 in floating point.
		a := make(model.Embedding, 512)
		b := make(model.Embedding, 512)
		for i := range a {
			a[i] = 0.1234567
			b[i] = 0.1234567
		}
		s, err := model.CosineSimilarity(a, b)
		gt.NoError(t, err).Required()
		gt.Bool(t, s <= 1.0).True()
		gt.Bool(t, s >= -1.0).True()
	})
}
