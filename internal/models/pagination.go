package models

import "encoding/json"

// Pagination is the page block attached to list responses. Older endpoints
// spell the totals as totalRecords/recordsPerPage, newer ones as
// totalItems/itemsPerPage; both decode into the same fields.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

func (p *Pagination) UnmarshalJSON(data []byte) error {
	var raw struct {
		CurrentPage    int `json:"currentPage"`
		TotalPages     int `json:"totalPages"`
		TotalItems     int `json:"totalItems"`
		TotalRecords   int `json:"totalRecords"`
		ItemsPerPage   int `json:"itemsPerPage"`
		RecordsPerPage int `json:"recordsPerPage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.CurrentPage = raw.CurrentPage
	p.TotalPages = raw.TotalPages
	p.TotalItems = raw.TotalItems
	if p.TotalItems == 0 {
		p.TotalItems = raw.TotalRecords
	}
	p.ItemsPerPage = raw.ItemsPerPage
	if p.ItemsPerPage == 0 {
		p.ItemsPerPage = raw.RecordsPerPage
	}
	return nil
}
