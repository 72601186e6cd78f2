package domain

import "github.com/shopspring/decimal"

// OrderLine — пара фото и выбранного для него формата.
type OrderLine struct {
	Photo Photo     `json:"photo"`
	Size  PrintSize `json:"size"`
}

// OrderDraft — производное представление заказа, пересчитывается при каждом чтении.
type OrderDraft struct {
	Lines []OrderLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (d OrderDraft) Empty() bool {
	return len(d.Lines) == 0
}

func (d OrderDraft) Count() int {
	return len(d.Lines)
}

// ComputeDraft отбирает фото, для которых выбран формат, сохраняя порядок photos,
// и суммирует цены в фиксированной точке.
func ComputeDraft(photos []Photo, selections map[string]PrintSize) OrderDraft {
	draft := OrderDraft{Lines: []OrderLine{}, Total: decimal.Zero}
	for _, p := range photos {
		size, ok := selections[p.ID]
		if !ok {
			continue
		}
		draft.Lines = append(draft.Lines, OrderLine{Photo: p, Size: size})
		draft.Total = draft.Total.Add(size.Price)
	}
	return draft
}
