package checkout

import (
	"github.com/google/uuid"
)

// CartItemInput is one item in the submitted cart.
type CartItemInput struct {
	MenuItemID   uuid.UUID
	RestaurantID uuid.UUID
	Qty          int
	Notes        *string
}

// CartPartition groups the cart items destined for a single restaurant.
type CartPartition struct {
	RestaurantID uuid.UUID
	Items        []CartItemInput
}

// SplitCart partitions cart items by restaurant. Partitions appear in the
// order each restaurant is first seen, and items keep their cart order
// within a partition.
func SplitCart(items []CartItemInput) []CartPartition {
	if len(items) == 0 {
		return nil
	}

	indexByRestaurant := make(map[uuid.UUID]int, len(items))
	partitions := make([]CartPartition, 0, len(items))

	for _, item := range items {
		idx, seen := indexByRestaurant[item.RestaurantID]
		if !seen {
			idx = len(partitions)
			indexByRestaurant[item.RestaurantID] = idx
			partitions = append(partitions, CartPartition{RestaurantID: item.RestaurantID})
		}
		partitions[idx].Items = append(partitions[idx].Items, item)
	}
	return partitions
}
