package model

import "strconv"

type RobotID int64

func (id RobotID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type RobotStatus string

const (
	RobotIdle    RobotStatus = "idle"
	RobotEnRoute RobotStatus = "en_route"
)

type LineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type Robot struct {
	ID               RobotID     `json:"id"`
	Status           RobotStatus `json:"status"`
	Items            []LineItem  `json:"items"`
	Destination      Destination `json:"destination,omitempty"`
	DestinationPoint *Point      `json:"destination_point,omitempty"`
	Position         Point       `json:"position"`
}

// Clone returns a copy that shares no slices or pointers with r.
func (r Robot) Clone() Robot {
	out := r
	out.Items = append([]LineItem(nil), r.Items...)
	if r.DestinationPoint != nil {
		p := *r.DestinationPoint
		out.DestinationPoint = &p
	}
	return out
}

func (r *Robot) Quantity(productID string) int {
	for _, it := range r.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// AddItem accumulates qty onto an existing line for productID or appends a new one.
func (r *Robot) AddItem(productID, name string, qty int) {
	for i := range r.Items {
		if r.Items[i].ProductID == productID {
			r.Items[i].Quantity += qty
			return
		}
	}
	r.Items = append(r.Items, LineItem{ProductID: productID, ProductName: name, Quantity: qty})
}

func (r *Robot) RemoveItem(productID string) bool {
	for i := range r.Items {
		if r.Items[i].ProductID == productID {
			r.Items = append(r.Items[:i], r.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Release returns the robot to idle and drops its trip data.
func (r *Robot) Release(clearItems bool) {
	r.Status = RobotIdle
	r.Destination = ""
	r.DestinationPoint = nil
	if clearItems {
		r.Items = nil
	}
}
