package mockapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

const (
	demoUserID   = "user123"
	demoName     = "John Doe"
	demoEmail    = "john@example.com"
	demoPassword = "password123"
)

var restaurants = []domain.Restaurant{
	{
		ID:           "1",
		Name:         "Maharaja Palace",
		ImageURL:     "https://maharajarohtak.com/Resources/Img/3.jpg",
		Cuisine:      "North Indian",
		Rating:       4.7,
		DeliveryTime: "30-40 min",
		Address:      "123 MG Road, Bangalore, KA, India",
		Description:  "Experience royal flavors with authentic North Indian dishes including kebabs and curries.",
	},
	{
		ID:           "2",
		Name:         "Bombay Bites",
		ImageURL:     "https://images.unsplash.com/photo-1579684947550-22e945225d9a",
		Cuisine:      "Mumbai Street Food",
		Rating:       4.9,
		DeliveryTime: "25-35 min",
		Address:      "456 Marine Drive, Mumbai, MH, India",
		Description:  "Delicious Mumbai street food with a modern twist on traditional snacks.",
	},
	{
		ID:           "3",
		Name:         "Curry Corner",
		ImageURL:     "https://images.unsplash.com/photo-1517248135467-4c7edcad34c4",
		Cuisine:      "South Indian",
		Rating:       4.5,
		DeliveryTime: "40-50 min",
		Address:      "789 Brigade Road, Bangalore, KA, India",
		Description:  "Aromatic South Indian delicacies featuring dosas, idlis, and flavorful sambar.",
	},
	{
		ID:           "4",
		Name:         "Tandoori Trails",
		ImageURL:     "https://images.unsplash.com/photo-1550966871-3ed3cdb5ed0c",
		Cuisine:      "North Indian",
		Rating:       4.8,
		DeliveryTime: "35-45 min",
		Address:      "101 Connaught Place, New Delhi, DL, India",
		Description:  "Experience the best of tandoor-cooked dishes and rich curries in a vibrant setting.",
	},
	{
		ID:           "5",
		Name:         "Spice Symphony",
		ImageURL:     "https://images.unsplash.com/photo-1555396273-367ea4eb4db5",
		Cuisine:      "Indian Fusion",
		Rating:       4.6,
		DeliveryTime: "30-40 min",
		Address:      "202 Indiranagar, Bangalore, KA, India",
		Description:  "A blend of traditional Indian spices with innovative cooking techniques.",
	},
	{
		ID:           "6",
		Name:         "Dosa Delight",
		ImageURL:     "https://images.unsplash.com/photo-1565299585323-38d6b0865b47",
		Cuisine:      "South Indian",
		Rating:       4.4,
		DeliveryTime: "20-30 min",
		Address:      "303 T. Nagar, Chennai, TN, India",
		Description:  "Authentic dosas, idlis, and vadas served with a variety of chutneys.",
	},
}

func menuItem(id, restaurantID, name, price, category, description string) domain.MenuItem {
	return domain.MenuItem{
		ID:           id,
		Name:         name,
		Description:  description,
		Category:     category,
		Price:        decimal.RequireFromString(price),
		RestaurantID: restaurantID,
		Available:    true,
	}
}

var menus = map[string][]domain.MenuItem{
	"1": {
		menuItem("101", "1", "Butter Chicken", "16.99", "Main Course", "Creamy tomato gravy with tender chicken pieces."),
		menuItem("102", "1", "Paneer Tikka Masala", "18.99", "Main Course", "Grilled paneer in a spicy, creamy tomato sauce."),
		menuItem("103", "1", "Dal Makhani", "15.99", "Main Course", "Slow-cooked black lentils in a rich, buttery sauce."),
		menuItem("104", "1", "Vegetable Biryani", "12.99", "Rice Dish", "Fragrant rice layered with mixed vegetables and spices."),
	},
	"2": {
		menuItem("201", "2", "Vada Pav", "14.99", "Street Food", "Spicy potato fritter sandwiched between a bun, served with zesty chutney."),
		menuItem("202", "2", "Pav Bhaji", "16.99", "Street Food", "Mixed vegetable curry served with buttered pav bread for a hearty snack."),
		menuItem("203", "2", "Jalebi", "8.99", "Dessert", "Sweet, spiral-shaped dessert soaked in saffron-infused syrup."),
		menuItem("204", "2", "Kachumber Salad", "10.99", "Salad", "Fresh cucumber, tomato, and onion salad with a tangy lemon dressing."),
	},
}

// seedOrder is the delivered order every fresh provider reports for the demo user.
func seedOrder(now time.Time) domain.Order {
	return domain.Order{
		ID:           "order123",
		UserID:       demoUserID,
		RestaurantID: "1",
		Items: []domain.OrderLine{
			{ItemID: "101", Quantity: 2, Price: decimal.RequireFromString("16.99"), Name: "Butter Chicken"},
		},
		TotalAmount:     decimal.RequireFromString("33.98"),
		Status:          domain.OrderStatusDelivered,
		DeliveryAddress: "123 MG Road, Bangalore, KA, India",
		CreatedAt:       now.Add(-24 * time.Hour),
	}
}
