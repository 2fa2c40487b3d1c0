package app

import (
	"math"
	"sync"
)

const (
	gaussianSize  = 2000
	gaussianScale = 100 // индексов таблицы на единицу расстояния
)

// gaussianWeights таблица весов exp(-x²/2) с шагом 0.01 до x = 20.
var gaussianWeights = sync.OnceValue(func() []float64 {
	w := make([]float64, gaussianSize)
	for i := range w {
		x := float64(i) / gaussianScale
		w[i] = math.Exp(-x * x / 2)
	}
	return w
})

// gaussianWeight возвращает вес отклонения d от пика, 0 за пределами таблицы.
func gaussianWeight(d float64) float64 {
	idx := int(math.Abs(d)*gaussianScale + 0.5)
	w := gaussianWeights()
	if idx >= len(w) {
		return 0
	}
	return w[idx]
}
