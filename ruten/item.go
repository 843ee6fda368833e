package ruten

import (
	"strings"

	"github.com/aowotoys/catalog-sync/models"
)

const (
	classID           = "00050008"
	storeClassPopMart = "6529089"
	storeClassDefault = "6529088"
	popMartKeyword    = "泡泡瑪特"
	stockStatus       = "21DAY"
	locationTaiwan    = 1
	locationNewTaipei = "03"
	conditionNew      = 1
	shippingByDefault = 1
	defaultQty        = 10
)

// Item is the body of a product upload.
type Item struct {
	Name            string `json:"name"`
	ClassID         string `json:"class_id"`
	StoreClassID    string `json:"store_class_id"`
	Condition       int    `json:"condition"`
	StockStatus     string `json:"stock_status"`
	Description     string `json:"description"`
	VideoLink       string `json:"video_link"`
	LocationType    int    `json:"location_type"`
	Location        string `json:"location"`
	ShippingSetting int    `json:"shipping_setting"`
	HasSpec         bool   `json:"has_spec"`
	Price           int64  `json:"price"`
	Qty             int    `json:"qty"`
	CustomNo        string `json:"custom_no"`
}

// StoreClassID picks the shop category for a product name.
func StoreClassID(name string) string {
	if strings.Contains(name, popMartKeyword) {
		return storeClassPopMart
	}
	return storeClassDefault
}

// BuildItem maps a stored record onto an upload item. The product id is
// the item's custom number so uploads can be traced back.
func BuildItem(rec models.ProductRecord) Item {
	return Item{
		Name:            rec.Name,
		ClassID:         classID,
		StoreClassID:    StoreClassID(rec.Name),
		Condition:       conditionNew,
		StockStatus:     stockStatus,
		Description:     rec.Detail,
		VideoLink:       "",
		LocationType:    locationTaiwan,
		Location:        locationNewTaipei,
		ShippingSetting: shippingByDefault,
		HasSpec:         false,
		Price:           rec.Price,
		Qty:             defaultQty,
		CustomNo:        rec.ProductID,
	}
}
