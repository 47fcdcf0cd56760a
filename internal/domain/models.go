package domain

import "time"

type Product struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Category      string    `json:"category" bson:"category"`
	CurrentStock  int       `json:"currentStock" bson:"currentStock"`
	BuyingPrice   float64   `json:"buyingPrice" bson:"buyingPrice"`
	SellingPrice  float64   `json:"sellingPrice" bson:"sellingPrice"`
	MinStock      int       `json:"minStock" bson:"minStock"`
	CriticalStock int       `json:"criticalStock" bson:"criticalStock"`
	SKU           string    `json:"sku,omitempty" bson:"sku,omitempty"`
	Barcode       string    `json:"barcode,omitempty" bson:"barcode,omitempty"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
	SoldUnits     int       `json:"soldUnits,omitempty" bson:"soldUnits,omitempty"`
	Revenue       float64   `json:"revenue,omitempty" bson:"revenue,omitempty"`
	Profit        float64   `json:"profit,omitempty" bson:"profit,omitempty"`
}

// InvoiceItem is a line embedded in an Invoice. ProductName, Price and
// CostPrice are snapshots taken at sale time.
type InvoiceItem struct {
	ProductID   string  `json:"productId" bson:"productId"`
	ProductName string  `json:"productName" bson:"productName"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
	CostPrice   float64 `json:"costPrice" bson:"costPrice"`
	Total       float64 `json:"total" bson:"total"`
}

// LineProfit is (price - costPrice) * quantity.
func (i InvoiceItem) LineProfit() float64 {
	return (i.Price - i.CostPrice) * float64(i.Quantity)
}

type Invoice struct {
	ID            string        `json:"id" bson:"_id"`
	InvoiceNumber string        `json:"invoiceNumber" bson:"invoiceNumber"`
	CustomerName  string        `json:"customerName" bson:"customerName"`
	CustomerPhone string        `json:"customerPhone,omitempty" bson:"customerPhone,omitempty"`
	Items         []InvoiceItem `json:"items" bson:"items"`
	Subtotal      float64       `json:"subtotal" bson:"subtotal"`
	Tax           float64       `json:"tax" bson:"tax"`
	Total         float64       `json:"total" bson:"total"`
	Profit        float64       `json:"profit" bson:"profit"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
}

type Customer struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Phone     string    `json:"phone" bson:"phone"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type ProductCreateRequest struct {
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category" validate:"required"`
	CurrentStock  int     `json:"currentStock" validate:"gte=0"`
	BuyingPrice   float64 `json:"buyingPrice" validate:"gte=0"`
	SellingPrice  float64 `json:"sellingPrice" validate:"gte=0"`
	MinStock      int     `json:"minStock" validate:"gte=0"`
	CriticalStock int     `json:"criticalStock" validate:"gte=0"`
	SKU           string  `json:"sku,omitempty"`
	Barcode       string  `json:"barcode,omitempty"`
	Description   string  `json:"description,omitempty"`
	Image         string  `json:"image,omitempty"`
}

type ProductUpdateRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Category      *string  `json:"category,omitempty" validate:"omitempty,min=1"`
	CurrentStock  *int     `json:"currentStock,omitempty" validate:"omitempty,gte=0"`
	BuyingPrice   *float64 `json:"buyingPrice,omitempty" validate:"omitempty,gte=0"`
	SellingPrice  *float64 `json:"sellingPrice,omitempty" validate:"omitempty,gte=0"`
	MinStock      *int     `json:"minStock,omitempty" validate:"omitempty,gte=0"`
	CriticalStock *int     `json:"criticalStock,omitempty" validate:"omitempty,gte=0"`
	SKU           *string  `json:"sku,omitempty"`
	Barcode       *string  `json:"barcode,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Image         *string  `json:"image,omitempty"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type SaleRequest struct {
	ProductID    string  `json:"productId" validate:"required"`
	Quantity     int     `json:"quantity" validate:"gt=0"`
	SellingPrice float64 `json:"sellingPrice" validate:"gte=0"`
	CostPrice    float64 `json:"costPrice" validate:"gte=0"`
}

type InvoiceLineRequest struct {
	ProductID string   `json:"productId" validate:"required"`
	Quantity  int      `json:"quantity" validate:"gt=0"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type InvoiceCreateRequest struct {
	CustomerName  string               `json:"customerName" validate:"required"`
	CustomerPhone string               `json:"customerPhone,omitempty"`
	Items         []InvoiceLineRequest `json:"items" validate:"required,min=1,dive"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

type CategoryCreateRequest struct {
	Name string `json:"name" validate:"required"`
}

type StockClass string

const (
	StockOutOfStock StockClass = "out_of_stock"
	StockCritical   StockClass = "critical"
	StockLow        StockClass = "low"
	StockInStock    StockClass = "in_stock"
)

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type InventorySummary struct {
	TotalProducts        int             `json:"totalProducts"`
	InventoryValue       float64         `json:"inventoryValue"`
	TotalRevenue         float64         `json:"totalRevenue"`
	TotalProfit          float64         `json:"totalProfit"`
	AverageMargin        float64         `json:"averageMargin"`
	LowStockCount        int             `json:"lowStockCount"`
	CriticalStockCount   int             `json:"criticalStockCount"`
	OutOfStockCount      int             `json:"outOfStockCount"`
	CategoryDistribution []CategoryCount `json:"categoryDistribution"`
}

type TrendSeries struct {
	Labels     []string  `json:"labels"`
	Revenue    []float64 `json:"revenue"`
	Profit     []float64 `json:"profit"`
	SoldStocks []int     `json:"soldStocks"`
}

type Dashboard struct {
	Summary     InventorySummary `json:"summary"`
	Trend       TrendSeries      `json:"trend"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type CustomerAnalytics struct {
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	TotalRevenue float64           `json:"totalRevenue"`
	TotalProfit  float64           `json:"totalProfit"`
	VisitCount   int               `json:"visitCount"`
	LastVisit    time.Time         `json:"lastVisit"`
	FirstVisit   time.Time         `json:"firstVisit"`
	TopProducts  []ProductQuantity `json:"topProducts"`
	InvoiceIDs   []string          `json:"invoiceIds"`
}

type VisitFrequency string

const (
	FrequencyNew        VisitFrequency = "New Customer"
	FrequencyDaily      VisitFrequency = "Daily"
	FrequencyWeekly     VisitFrequency = "Weekly"
	FrequencyMonthly    VisitFrequency = "Monthly"
	FrequencyOccasional VisitFrequency = "Occasional"
)

type CustomerInsight struct {
	CustomerAnalytics
	VisitFrequency VisitFrequency `json:"visitFrequency"`
}

type CustomerSort string

const (
	SortByRevenue CustomerSort = "revenue"
	SortByVisits  CustomerSort = "visits"
	SortByRecent  CustomerSort = "recent"
)

type TransactionRecord struct {
	InvoiceID     string    `json:"invoiceId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	CustomerName  string    `json:"customerName"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	Total         float64   `json:"total"`
	Profit        float64   `json:"profit"`
	Date          time.Time `json:"date"`
}

type TransactionTotals struct {
	Revenue          float64 `json:"revenue"`
	Profit           float64 `json:"profit"`
	QuantitySold     int     `json:"quantitySold"`
	TransactionCount int     `json:"transactionCount"`
}

type ProductHistory struct {
	Product      *Product            `json:"product,omitempty"`
	Transactions []TransactionRecord `json:"transactions"`
	Totals       TransactionTotals   `json:"totals"`
}

type StockAlert struct {
	Product Product    `json:"product"`
	Class   StockClass `json:"class"`
}

// Backup is the full export shape; each collection round-trips losslessly.
type Backup struct {
	Products   []Product  `json:"products"`
	Invoices   []Invoice  `json:"invoices"`
	Customers  []Customer `json:"customers"`
	Categories []string   `json:"categories"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
}

const UnknownCustomerKey = "unknown"
