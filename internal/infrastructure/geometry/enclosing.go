package geometry

import (
	"image"
	"math"
	"math/rand/v2"

	"disk-guider/internal/domain/entity"
)

const enclosingEps = 1e-7

type vec struct{ x, y float64 }

type circle struct {
	c vec
	r float64
}

func (c circle) contains(p vec) bool {
	return math.Hypot(p.x-c.c.x, p.y-c.c.y) <= c.r+enclosingEps*math.Max(1, c.r)
}

// EnclosingCircle возвращает минимальную окружность, содержащую все точки.
// Инкрементальный алгоритм Вельцля; порядок точек перемешивается
// детерминированно, поэтому результат воспроизводим.
func EnclosingCircle(points []image.Point) entity.CircleDescriptor {
	if len(points) == 0 {
		return entity.CircleDescriptor{}
	}

	pts := make([]vec, len(points))
	for i, p := range points {
		pts[i] = vec{float64(p.X), float64(p.Y)}
	}
	rnd := rand.New(rand.NewPCG(0x9e3779b9, uint64(len(pts))))
	rnd.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })

	c := circle{c: pts[0]}
	for i := 1; i < len(pts); i++ {
		if c.contains(pts[i]) {
			continue
		}
		c = circle{c: pts[i]}
		for j := 0; j < i; j++ {
			if c.contains(pts[j]) {
				continue
			}
			c = circleFromTwo(pts[i], pts[j])
			for k := 0; k < j; k++ {
				if !c.contains(pts[k]) {
					c = circleFromThree(pts[i], pts[j], pts[k])
				}
			}
		}
	}

	return entity.CircleDescriptor{X: c.c.x, Y: c.c.y, Radius: c.r}
}

func circleFromTwo(a, b vec) circle {
	center := vec{(a.x + b.x) / 2, (a.y + b.y) / 2}
	return circle{c: center, r: math.Hypot(a.x-center.x, a.y-center.y)}
}

func circleFromThree(a, b, c vec) circle {
	bx, by := b.x-a.x, b.y-a.y
	cx, cy := c.x-a.x, c.y-a.y
	d := 2 * (bx*cy - by*cx)
	if math.Abs(d) < 1e-12 {
		// Точки на одной прямой: окружность на самой дальней паре.
		best := circleFromTwo(a, b)
		if alt := circleFromTwo(a, c); alt.r > best.r {
			best = alt
		}
		if alt := circleFromTwo(b, c); alt.r > best.r {
			best = alt
		}
		return best
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return circle{c: vec{a.x + ux, a.y + uy}, r: math.Hypot(ux, uy)}
}
