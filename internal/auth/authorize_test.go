package auth

import (
	"testing"

	"foodcourt-backoffice/internal/domain"
)

func TestAllowedMatrix(t *testing.T) {
	cases := []struct {
		name     string
		role     domain.Role
		verb     Verb
		res      Resource
		expected bool
	}{
		{"superadmin reads any order", domain.RoleSuperadmin, VerbReadOrder, Resource{}, true},
		{"superadmin refunds anywhere", domain.RoleSuperadmin, VerbRefundPayment, Resource{}, true},
		{"superadmin cannot consume invite", domain.RoleSuperadmin, VerbConsumeInvite, Resource{}, false},

		{"owner reads own restaurant order", domain.RoleRestaurantOwner, VerbReadOrder, Resource{OwnedByCaller: true}, true},
		{"owner cannot read foreign order", domain.RoleRestaurantOwner, VerbReadOrder, Resource{}, false},
		{"owner refunds own restaurant", domain.RoleRestaurantOwner, VerbRefundPayment, Resource{OwnedByCaller: true}, true},
		{"owner cannot refund elsewhere", domain.RoleRestaurantOwner, VerbRefundPayment, Resource{EmployedHere: true}, false},
		{"owner manages own staff", domain.RoleRestaurantOwner, VerbManageEmployees, Resource{OwnedByCaller: true}, true},
		{"owner clocks any of own staff", domain.RoleRestaurantOwner, VerbClockInOut, Resource{OwnedByCaller: true}, true},
		{"owner cannot consume invite", domain.RoleRestaurantOwner, VerbConsumeInvite, Resource{OwnedByCaller: true}, false},
		{"owner reads own payouts", domain.RoleRestaurantOwner, VerbReadPayouts, Resource{OwnedByCaller: true}, true},
		{"owner cannot read foreign payouts", domain.RoleRestaurantOwner, VerbReadPayouts, Resource{}, false},

		{"employee transitions where employed", domain.RoleEmployee, VerbTransitionOrder, Resource{EmployedHere: true}, true},
		{"employee cannot transition elsewhere", domain.RoleEmployee, VerbTransitionOrder, Resource{}, false},
		{"employee takes cash where employed", domain.RoleEmployee, VerbProcessCashTerminal, Resource{EmployedHere: true}, true},
		{"employee cannot refund", domain.RoleEmployee, VerbRefundPayment, Resource{EmployedHere: true}, false},
		{"employee cannot manage staff", domain.RoleEmployee, VerbManageEmployees, Resource{EmployedHere: true}, false},
		{"employee cannot read payouts", domain.RoleEmployee, VerbReadPayouts, Resource{EmployedHere: true}, false},
		{"employee clocks own record", domain.RoleEmployee, VerbClockInOut, Resource{EmployedHere: true, SelfTarget: true}, true},
		{"employee cannot clock a colleague", domain.RoleEmployee, VerbClockInOut, Resource{EmployedHere: true}, false},

		{"customer reads own order", domain.RoleCustomer, VerbReadOrder, Resource{SelfPlaced: true}, true},
		{"customer cannot read foreign order", domain.RoleCustomer, VerbReadOrder, Resource{}, false},
		{"customer cancels own pending order", domain.RoleCustomer, VerbCancelOrder, Resource{SelfPlaced: true, OrderStatus: domain.OrderPending}, true},
		{"customer cannot cancel once preparing", domain.RoleCustomer, VerbCancelOrder, Resource{SelfPlaced: true, OrderStatus: domain.OrderPreparing}, false},
		{"customer pays for own order", domain.RoleCustomer, VerbCreatePayment, Resource{SelfPlaced: true}, true},
		{"customer cannot take cash", domain.RoleCustomer, VerbProcessCashTerminal, Resource{SelfPlaced: true}, false},
		{"customer consumes invite", domain.RoleCustomer, VerbConsumeInvite, Resource{}, true},
		{"customer cannot transition orders", domain.RoleCustomer, VerbTransitionOrder, Resource{SelfPlaced: true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allowed(tc.role, tc.verb, tc.res); got != tc.expected {
				t.Fatalf("Allowed(%s, %s, %+v) = %v, expected %v", tc.role, tc.verb, tc.res, got, tc.expected)
			}
		})
	}
}
