package dto

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	HasMore    bool        `json:"has_more"`
}

// ProfileShort - автор, участник чата, сотрудник в списках
type ProfileShort struct {
	ID       string  `json:"id"`
	Slug     string  `json:"slug"`
	FullName string  `json:"full_name"`
	Image    *string `json:"image,omitempty"`
}

type OrganizationShort struct {
	ID    string  `json:"id"`
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Logo  *string `json:"logo,omitempty"`
}
