package models

import "time"

// Entities served by the admin REST API. Field names mirror the API's
// camelCase payloads.

type Site struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	Status    string     `json:"status"`
	ManagerID string     `json:"managerId,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Task struct {
	ID          string     `json:"_id"`
	SiteID      string     `json:"siteId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type InventoryItem struct {
	ID        string    `json:"_id"`
	SiteID    string    `json:"siteId"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Quantity  int       `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Feedback struct {
	ID        string    `json:"_id"`
	AuthorID  string    `json:"authorId"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Rating    int       `json:"rating,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Complaint struct {
	ID          string     `json:"_id"`
	SiteID      string     `json:"siteId,omitempty"`
	RaisedBy    string     `json:"raisedBy"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Severity    string     `json:"severity,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

type SafetyLog struct {
	ID          string    `json:"_id"`
	SiteID      string    `json:"siteId"`
	ReportedBy  string    `json:"reportedBy"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

type WorkPack struct {
	ID          string     `json:"_id"`
	SiteID      string     `json:"siteId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	TaskIDs     []string   `json:"taskIds,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Employee struct {
	ID       string    `json:"_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Role     string    `json:"role"`
	SiteID   string    `json:"siteId,omitempty"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joinedAt"`
}
