package domain

import "time"

// All monetary amounts are integer minor units. Division by 100 happens only
// at the presentation boundary (receipt rendering).

type Role string

const (
	RoleSuperadmin      Role = "SUPERADMIN"
	RoleRestaurantOwner Role = "RESTAURANT_OWNER"
	RoleEmployee        Role = "EMPLOYEE"
	RoleCustomer        Role = "CUSTOMER"
)

type Principal struct {
	ID                 string
	Role               Role
	ExternalIdentityID string
}

type DeliveryType string

const (
	DeliveryDineIn   DeliveryType = "DINE_IN"
	DeliveryTakeaway DeliveryType = "TAKEAWAY"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID                   string       `json:"id"`
	OrderNumber          string       `json:"orderNumber"`
	RestaurantID         string       `json:"restaurantId"`
	TableID              *string      `json:"tableId,omitempty"`
	CustomerPrincipalID  *string      `json:"customerPrincipalId,omitempty"`
	CustomerName         string       `json:"customerName"`
	CustomerPhone        string       `json:"customerPhone"`
	DeliveryType         DeliveryType `json:"deliveryType"`
	TotalMinor           int64        `json:"totalMinor"`
	Status               OrderStatus  `json:"status"`
	Items                []OrderItem  `json:"items"`
	SpecialInstructions  *string      `json:"specialInstructions,omitempty"`
	EstimatedMinutes     *int         `json:"estimatedMinutes,omitempty"`
	CancellationReason   *string      `json:"cancellationReason,omitempty"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

type OrderItem struct {
	ID                  string  `json:"id"`
	OrderID             string  `json:"orderId"`
	ProductID           string  `json:"productId"`
	ProductName         string  `json:"productName"`
	VariantLabel        *string `json:"variantLabel,omitempty"`
	Quantity            int     `json:"quantity"`
	UnitPriceMinor      int64   `json:"unitPriceMinor"`
	LineTotalMinor      int64   `json:"lineTotalMinor"`
	SpecialInstructions *string `json:"specialInstructions,omitempty"`
}

type PaymentMethod string

const (
	MethodCardPSPA PaymentMethod = "CARD_PSP_A"
	MethodCardPSPB PaymentMethod = "CARD_PSP_B"
	MethodCash     PaymentMethod = "CASH"
	MethodTerminal PaymentMethod = "TERMINAL"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// TerminalPaymentStatus reports whether no further transitions are allowed.
// Completed is not terminal: it may still move to Refunded.
func TerminalPaymentStatus(s PaymentStatus) bool {
	return s == PaymentFailed || s == PaymentRefunded
}

type Payment struct {
	ID               string         `json:"id"`
	OrderID          string         `json:"orderId"`
	AmountMinor      int64          `json:"amountMinor"`
	Currency         string         `json:"currency"`
	Method           PaymentMethod  `json:"method"`
	Status           PaymentStatus  `json:"status"`
	CommissionMinor  int64          `json:"commissionMinor"`
	NetMinor         int64          `json:"netMinor"`
	ProviderRef      *string        `json:"providerRef,omitempty"`
	RedirectURL      *string        `json:"redirectUrl,omitempty"`
	ProviderMetadata map[string]any `json:"providerMetadata,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type Refund struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"paymentId"`
	AmountMinor int64     `json:"amountMinor"`
	Reason      string    `json:"reason"`
	RefundRef   *string   `json:"refundRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type EmployeeRole string

const (
	EmployeeManager EmployeeRole = "MANAGER"
	EmployeeCashier EmployeeRole = "CASHIER"
	EmployeeCook    EmployeeRole = "COOK"
	EmployeeWaiter  EmployeeRole = "WAITER"
	EmployeeCleaner EmployeeRole = "CLEANER"
)

type Employee struct {
	ID              string       `json:"id"`
	RestaurantID    string       `json:"restaurantId"`
	PrincipalID     *string      `json:"principalId,omitempty"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Email           *string      `json:"email,omitempty"`
	Role            EmployeeRole `json:"role"`
	HourlyWageMinor *int64       `json:"hourlyWageMinor,omitempty"`
	Active          bool         `json:"active"`
}

type ShiftStatus string

const (
	ShiftScheduled ShiftStatus = "SCHEDULED"
	ShiftActive    ShiftStatus = "ACTIVE"
	ShiftCompleted ShiftStatus = "COMPLETED"
	ShiftCancelled ShiftStatus = "CANCELLED"
)

type Shift struct {
	ID             string      `json:"id"`
	EmployeeID     string      `json:"employeeId"`
	ScheduledStart time.Time   `json:"scheduledStart"`
	ScheduledEnd   time.Time   `json:"scheduledEnd"`
	ActualStart    *time.Time  `json:"actualStart,omitempty"`
	ActualEnd      *time.Time  `json:"actualEnd,omitempty"`
	BreakMinutes   int         `json:"breakMinutes"`
	Status         ShiftStatus `json:"status"`
	Notes          *string     `json:"notes,omitempty"`
}

type InviteStatus string

const (
	InviteActive   InviteStatus = "ACTIVE"
	InviteConsumed InviteStatus = "CONSUMED"
	InviteExpired  InviteStatus = "EXPIRED"
	InviteRevoked  InviteStatus = "REVOKED"
)

type InviteToken struct {
	ID                   string       `json:"id"`
	RestaurantID         string       `json:"restaurantId"`
	GrantedRole          EmployeeRole `json:"grantedRole"`
	HourlyWageMinor      *int64       `json:"hourlyWageMinor,omitempty"`
	ExpiresAt            time.Time    `json:"expiresAt"`
	MaxUses              int          `json:"maxUses"`
	UsedCount            int          `json:"usedCount"`
	Status               InviteStatus `json:"status"`
	CreatedByPrincipalID string       `json:"createdByPrincipalId"`
}
