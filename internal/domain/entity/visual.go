package entity

import "image"

// VisualSnapshot данные для отрисовки внутренних признаков детектора.
type VisualSnapshot struct {
	ROI      image.Rectangle `json:"roi"`
	Contour  []Point         `json:"contour"`
	Centroid Point           `json:"centroid"`
	Circle   Point           `json:"circle"`
}

// Clone возвращает независимую копию снимка.
func (v VisualSnapshot) Clone() VisualSnapshot {
	out := v
	if v.Contour != nil {
		out.Contour = make([]Point, len(v.Contour))
		copy(out.Contour, v.Contour)
	}
	return out
}
