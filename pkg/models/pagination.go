package models

// Pagination describes the page buttons shown under an article list.
type Pagination struct {
	Page     int
	PageSize int
	Total    int64
	Pages    []int
}

// NewPagination derives page numbers from a list response. Pages is empty
// when everything fits on a single page.
func NewPagination(total int64, page, pageSize int) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if total <= int64(pageSize) {
		return p
	}
	count := int((total + int64(pageSize) - 1) / int64(pageSize))
	p.Pages = make([]int, count)
	for i := range p.Pages {
		p.Pages[i] = i + 1
	}
	return p
}

func (p Pagination) HasPages() bool { return len(p.Pages) > 0 }

func (p Pagination) IsCurrent(n int) bool { return n == p.Page }

func (p Pagination) PageCount() int {
	if len(p.Pages) == 0 {
		return 1
	}
	return len(p.Pages)
}
