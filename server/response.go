package server

import (
	"math"

	"github.com/mailru/easyjson/jwriter"
	"github.com/royalcat/cantonmap/dashboard"
)

type resolveResponse struct {
	Canton string
}

// MarshalEasyJSON writes an unresolved point as null.
func (r resolveResponse) MarshalEasyJSON(w *jwriter.Writer) {
	if r.Canton == "" {
		w.RawString("null")
		return
	}
	w.RawString(`{"canton":`)
	w.String(r.Canton)
	w.RawByte('}')
}

type resolveList []resolveResponse

func (l resolveList) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('[')
	for i, r := range l {
		if i > 0 {
			w.RawByte(',')
		}
		r.MarshalEasyJSON(w)
	}
	w.RawByte(']')
}

type regionResponse dashboard.ClassifiedRegion

// MarshalEasyJSON writes a missing or non-finite value as null.
func (r regionResponse) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"canton":`)
	w.String(r.ID)
	w.RawString(`,"value":`)
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		w.RawString("null")
	} else {
		w.Float64(r.Value)
	}
	w.RawString(`,"class":`)
	w.String(r.Class)
	w.RawString(`,"color":`)
	w.String(r.Color)
	w.RawByte('}')
}
