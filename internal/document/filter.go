package document

// DefaultPageSize is the initial page size of the document panel.
const DefaultPageSize = 10

// Filter is the mutable UI state behind a document listing.
type Filter struct {
	Page           int
	Size           int
	Sort           string
	SelectedStatus StatusFilter
	Creator        string
}

// NewFilter returns the panel's initial state: first page, ten per page,
// sorted by name.
func NewFilter() Filter {
	return Filter{
		Page: 1,
		Size: DefaultPageSize,
		Sort: DefaultSort,
	}
}

// ChangePage moves to page.
func (f *Filter) ChangePage(page int) {
	f.Page = page
}

// ChangeSort sets the sort key, e.g. "updatedAt,desc".
func (f *Filter) ChangeSort(sort string) {
	f.Sort = sort
}

// FilterByStatus selects statuses; nil clears the selection.
func (f *Filter) FilterByStatus(statuses ...Status) {
	if len(statuses) == 0 {
		f.SelectedStatus = nil
		return
	}
	f.SelectedStatus = StatusFilter(statuses)
}

// FilterByCreator sets the free-text creator filter.
func (f *Filter) FilterByCreator(creator string) {
	f.Creator = creator
}

// PageCount returns how many pages total items span at the current size.
func (f Filter) PageCount(total int) int {
	if f.Size < 1 || total <= 0 {
		return 1
	}
	return (total + f.Size - 1) / f.Size
}
