package requests

import (
	"encoding/json"
	"strings"

	"comedyuo/showsync/internal/mapping"
)

// CreateShowRequest is the body of POST /shows.
// date, comedian, ticket_price and ticket_link are accepted as aliases.
type CreateShowRequest struct {
	Title       string   `json:"title" validate:"notblank,max=255"`
	DateTime    string   `json:"date_time" validate:"notblank,showtime"`
	Location    string   `json:"location" validate:"notblank,max=255"`
	Description string   `json:"description"`
	Presenter   *string  `json:"presenter"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	TicketURL   *string  `json:"ticket_url" validate:"omitnil,url"`
}

type showAliases struct {
	Date        *string  `json:"date"`
	Comedian    *string  `json:"comedian"`
	TicketPrice *float64 `json:"ticket_price"`
	TicketLink  *string  `json:"ticket_link"`
}

func (r *CreateShowRequest) UnmarshalJSON(data []byte) error {
	type plain CreateShowRequest
	var aux struct {
		plain
		showAliases
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.DateTime == "" && aux.Date != nil {
		aux.DateTime = *aux.Date
	}
	if aux.Presenter == nil {
		aux.Presenter = aux.Comedian
	}
	if aux.Price == nil {
		aux.Price = aux.TicketPrice
	}
	if aux.TicketURL == nil {
		aux.TicketURL = aux.TicketLink
	}

	*r = CreateShowRequest(aux.plain)
	r.Presenter = blankToNil(r.Presenter)
	r.TicketURL = blankToNil(r.TicketURL)
	return nil
}

// LocalFields returns the request keyed by local field name
func (r CreateShowRequest) LocalFields() map[string]interface{} {
	return map[string]interface{}{
		mapping.FieldTitle:       r.Title,
		mapping.FieldDateTime:    r.DateTime,
		mapping.FieldLocation:    r.Location,
		mapping.FieldDescription: r.Description,
		mapping.FieldPresenter:   r.Presenter,
		mapping.FieldPrice:       r.Price,
		mapping.FieldTicketURL:   r.TicketURL,
	}
}

// ShowFields returns the typed fields. Call after validation.
func (r CreateShowRequest) ShowFields() mapping.ShowFields {
	start, _ := mapping.ParseStrict(r.DateTime)
	return mapping.ShowFields{
		Title:       r.Title,
		StartTime:   start,
		Location:    r.Location,
		Description: r.Description,
		Presenter:   r.Presenter,
		Price:       r.Price,
		TicketURL:   r.TicketURL,
	}
}

// UpdateShowRequest is a partial update. Only keys present in the body are
// changed; null clears an optional field and is ignored for required ones.
type UpdateShowRequest struct {
	Title       *string  `json:"title" validate:"omitnil,notblank,max=255"`
	DateTime    *string  `json:"date_time" validate:"omitnil,showtime"`
	Location    *string  `json:"location" validate:"omitnil,notblank,max=255"`
	Description *string  `json:"description"`
	Presenter   *string  `json:"presenter"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	TicketURL   *string  `json:"ticket_url" validate:"omitnil,url"`

	present map[string]bool
}

var patchAliases = map[string]string{
	"date":         mapping.FieldDateTime,
	"comedian":     mapping.FieldPresenter,
	"ticket_price": mapping.FieldPrice,
	"ticket_link":  mapping.FieldTicketURL,
}

func (r *UpdateShowRequest) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	type plain UpdateShowRequest
	var aux struct {
		plain
		showAliases
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.DateTime == nil {
		aux.DateTime = aux.Date
	}
	if aux.Presenter == nil {
		aux.Presenter = aux.Comedian
	}
	if aux.Price == nil {
		aux.Price = aux.TicketPrice
	}
	if aux.TicketURL == nil {
		aux.TicketURL = aux.TicketLink
	}

	*r = UpdateShowRequest(aux.plain)
	r.Presenter = blankToNil(r.Presenter)
	r.TicketURL = blankToNil(r.TicketURL)

	r.present = make(map[string]bool)
	for key := range keys {
		if local, ok := patchAliases[key]; ok {
			key = local
		}
		if _, ok := mapping.Lookup(key); ok {
			r.present[key] = true
		}
	}
	return nil
}

// Changes returns the provided fields keyed by local field name
func (r UpdateShowRequest) Changes() map[string]interface{} {
	changes := make(map[string]interface{})

	if r.Title != nil {
		changes[mapping.FieldTitle] = *r.Title
	}
	if r.DateTime != nil {
		changes[mapping.FieldDateTime] = *r.DateTime
	}
	if r.Location != nil {
		changes[mapping.FieldLocation] = *r.Location
	}
	if r.present[mapping.FieldDescription] {
		if r.Description != nil {
			changes[mapping.FieldDescription] = *r.Description
		} else {
			changes[mapping.FieldDescription] = ""
		}
	}
	if r.present[mapping.FieldPresenter] {
		changes[mapping.FieldPresenter] = r.Presenter
	}
	if r.present[mapping.FieldPrice] {
		changes[mapping.FieldPrice] = r.Price
	}
	if r.present[mapping.FieldTicketURL] {
		changes[mapping.FieldTicketURL] = r.TicketURL
	}
	return changes
}

// ApplyTo merges the changes into current
func (r UpdateShowRequest) ApplyTo(current mapping.ShowFields) mapping.ShowFields {
	out := current
	if r.Title != nil {
		out.Title = *r.Title
	}
	if r.DateTime != nil {
		if t, ok := mapping.ParseStrict(*r.DateTime); ok {
			out.StartTime = t
		}
	}
	if r.Location != nil {
		out.Location = *r.Location
	}
	if r.present[mapping.FieldDescription] {
		out.Description = ""
		if r.Description != nil {
			out.Description = *r.Description
		}
	}
	if r.present[mapping.FieldPresenter] {
		out.Presenter = r.Presenter
	}
	if r.present[mapping.FieldPrice] {
		out.Price = r.Price
	}
	if r.present[mapping.FieldTicketURL] {
		out.TicketURL = r.TicketURL
	}
	return out
}

// InviteRequest is the body of POST /shows/{id}/invite
type InviteRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=100"`
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
