package catalog

import "context"

// ListPage returns page number (1-based) of the active items. An empty catalog
// still has one empty page; any other page past the end is ErrPageOutOfRange.
func ListPage(ctx context.Context, repo Repository, number, size int) (*Page, error) {
	total, err := repo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	numPages := (total + size - 1) / size
	if numPages == 0 {
		numPages = 1
	}
	if number < 1 || number > numPages {
		return nil, ErrPageOutOfRange
	}
	items, err := repo.List(ctx, size, (number-1)*size)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items:    items,
		Number:   number,
		NumPages: numPages,
		Total:    total,
		HasPrev:  number > 1,
		HasNext:  number < numPages,
	}, nil
}
