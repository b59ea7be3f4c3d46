package auth

import "foodcourt-backoffice/internal/domain"

type Verb string

const (
	VerbReadOrder           Verb = "read_order"
	VerbTransitionOrder     Verb = "transition_order"
	VerbCancelOrder         Verb = "cancel_order"
	VerbCreatePayment       Verb = "create_payment"
	VerbProcessCashTerminal Verb = "process_cash_terminal"
	VerbRefundPayment       Verb = "refund_payment"
	VerbManageEmployees     Verb = "manage_employees"
	VerbClockInOut          Verb = "clock_in_out"
	VerbCreateInvite        Verb = "create_invite"
	VerbConsumeInvite       Verb = "consume_invite"
	VerbReadPayouts         Verb = "read_payouts"
)

// Resource captures the scope facts the matrix needs: whether the caller owns
// the target restaurant, is employed there, placed the order themselves, or
// is acting on their own employee record.
type Resource struct {
	OwnedByCaller bool
	EmployedHere  bool
	SelfPlaced    bool
	SelfTarget    bool
	OrderStatus   domain.OrderStatus
}

// Allowed is the normative authorization matrix. Superadmin passes every
// verb except invite consumption, which is a customer-only role upgrade.
func Allowed(role domain.Role, verb Verb, res Resource) bool {
	if verb == VerbConsumeInvite {
		return role == domain.RoleCustomer
	}
	if role == domain.RoleSuperadmin {
		return true
	}

	switch verb {
	case VerbReadOrder:
		switch role {
		case domain.RoleRestaurantOwner:
			return res.OwnedByCaller
		case domain.RoleEmployee:
			return res.EmployedHere
		case domain.RoleCustomer:
			return res.SelfPlaced
		}
	case VerbTransitionOrder:
		switch role {
		case domain.RoleRestaurantOwner:
			return res.OwnedByCaller
		case domain.RoleEmployee:
			return res.EmployedHere
		}
	case VerbCancelOrder:
		switch role {
		case domain.RoleRestaurantOwner:
			return res.OwnedByCaller
		case domain.RoleEmployee:
			return res.EmployedHere
		case domain.RoleCustomer:
			return res.SelfPlaced && res.OrderStatus == domain.OrderPending
		}
	case VerbCreatePayment:
		switch role {
		case domain.RoleRestaurantOwner:
			return res.OwnedByCaller
		case domain.RoleEmployee:
			return res.EmployedHere
		case domain.RoleCustomer:
			return res.SelfPlaced
		}
	case VerbProcessCashTerminal:
		switch role {
		case domain.RoleRestaurantOwner:
			return res.OwnedByCaller
		case domain.RoleEmployee:
			return res.EmployedHere
		}
	case VerbRefundPayment, VerbManageEmployees, VerbCreateInvite, VerbReadPayouts:
		return role == domain.RoleRestaurantOwner && res.OwnedByCaller
	case VerbClockInOut:
		switch role {
		case domain.RoleRestaurantOwner:
			return res.OwnedByCaller
		case domain.RoleEmployee:
			return res.SelfTarget
		}
	}
	return false
}
