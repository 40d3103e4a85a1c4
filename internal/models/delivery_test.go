package models

import "testing"

func TestDeliveryRecord_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{DeliveryStatusPending, DeliveryStatusSent, true},
		{DeliveryStatusSent, DeliveryStatusDelivered, true},
		{DeliveryStatusSent, DeliveryStatusRead, true},
		{DeliveryStatusDelivered, DeliveryStatusRead, true},

		// Receipts never move a record backwards.
		{DeliveryStatusRead, DeliveryStatusDelivered, false},
		{DeliveryStatusDelivered, DeliveryStatusSent, false},
		{DeliveryStatusSent, DeliveryStatusSent, false},

		// erro sits outside the receipt chain.
		{DeliveryStatusError, DeliveryStatusDelivered, false},
		{DeliveryStatusSent, DeliveryStatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			record := &DeliveryRecord{Status: tt.from}
			if got := record.CanAdvanceTo(tt.to); got != tt.want {
				t.Errorf("CanAdvanceTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
