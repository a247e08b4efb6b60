package item

type createItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Pointer fields distinguish "absent" from "set to empty" on partial
// updates.
type updateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type ItemOut struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
}

func toItemOut(i *Item) ItemOut {
	return ItemOut{ID: i.ID, Title: i.Title, Description: i.Description, OwnerID: i.OwnerID}
}
