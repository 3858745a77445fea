package graph

import (
	"strings"

	"building-converter/internal/converter/models"
)

// UValue returns the conductance of a construction: the U-VALUE attribute for
// U-VALUE constructions, or the inverse of the summed material resistances for
// layered ones. Resistances are in the document's units.
func (r *References) UValue(cons *models.Command) (float64, error) {
	if !isLayered(cons) {
		u, ok, err := cons.Float("U-VALUE")
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, models.NewError(models.KindUnresolvedReference, cons, "U-VALUE", "", "construction has no U-VALUE")
		}
		return u, nil
	}

	layer := r.layers[cons]
	if layer == nil {
		return 0, models.NewError(models.KindUnresolvedReference, cons, "LAYERS", "", "layers not resolved")
	}

	var total float64
	for _, mat := range r.materials[layer] {
		res, err := Resistance(mat)
		if err != nil {
			return 0, err
		}
		total += res
	}
	if total <= 0 {
		return 0, models.NewError(models.KindMalformedCommand, cons, "LAYERS", "", "total resistance is not positive")
	}
	return 1 / total, nil
}

// Resistance returns the thermal resistance of one MATERIAL command.
func Resistance(mat *models.Command) (float64, error) {
	t, _ := mat.StringValue("TYPE")
	if strings.EqualFold(t, "RESISTANCE") || (t == "" && mat.Has("RESISTANCE")) {
		res, ok, err := mat.Float("RESISTANCE")
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, models.NewError(models.KindMalformedCommand, mat, "RESISTANCE", "", "missing resistance")
		}
		return res, nil
	}

	thickness, okT, err := mat.Float("THICKNESS")
	if err != nil {
		return 0, err
	}
	conductivity, okC, err := mat.Float("CONDUCTIVITY")
	if err != nil {
		return 0, err
	}
	if !okT || !okC || conductivity == 0 {
		return 0, models.NewError(models.KindMalformedCommand, mat, "CONDUCTIVITY", "", "material needs THICKNESS and non-zero CONDUCTIVITY")
	}
	return thickness / conductivity, nil
}
