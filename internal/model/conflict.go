package model

// SlotRange диапазон слотов внутри одних суток
type SlotRange struct {
	StartSlot int `json:"start_slot"`
	Duration  int `json:"duration"`
}

// End возвращает слот конца диапазона (исключительно)
func (r SlotRange) End() int {
	return r.StartSlot + r.Duration
}

// Overlaps проверяет пересечение двух полуоткрытых диапазонов.
// Соприкасающиеся границы пересечением не считаются.
func (r SlotRange) Overlaps(other SlotRange) bool {
	return r.StartSlot < other.End() && r.End() > other.StartSlot
}

// Contains проверяет что other целиком лежит внутри r
func (r SlotRange) Contains(other SlotRange) bool {
	return other.StartSlot >= r.StartSlot && other.End() <= r.End()
}

// FindConflict ищет первый диапазон из existing, пересекающийся с candidate
func FindConflict(candidate SlotRange, existing []SlotRange) (SlotRange, bool) {
	for _, r := range existing {
		if candidate.Overlaps(r) {
			return r, true
		}
	}
	return SlotRange{}, false
}
