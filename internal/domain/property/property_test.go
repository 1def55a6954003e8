package property

import "testing"

func TestNew_Defaults(t *testing.T) {
	p := New()
	if p.Name != "New Property" {
		t.Errorf("Name = %q, want New Property", p.Name)
	}
	if p.Type != TypeApartment || p.Status != StatusAvailable {
		t.Errorf("type/status = %s/%s, want apartment/available", p.Type, p.Status)
	}
	if p.Bedrooms != 1 || p.Bathrooms != 1 || p.Rent != 0 {
		t.Errorf("bed/bath/rent = %d/%d/%v, want 1/1/0", p.Bedrooms, p.Bathrooms, p.Rent)
	}
	if p.LastPaymentDate != nil {
		t.Errorf("LastPaymentDate = %v, want nil", *p.LastPaymentDate)
	}
	if p.ID != "" {
		t.Errorf("ID = %q, store assigns identity", p.ID)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default property should validate: %v", err)
	}
}

func TestProperty_Validate(t *testing.T) {
	bad := "01/02/2024"
	good := "2024-02-01"

	tests := []struct {
		name    string
		mutate  func(p *Property)
		wantErr string
	}{
		{name: "valid", mutate: func(*Property) {}},
		{name: "valid payment date", mutate: func(p *Property) { p.LastPaymentDate = &good }},
		{name: "missing name", mutate: func(p *Property) { p.Name = "" }, wantErr: "name is required"},
		{name: "bad type", mutate: func(p *Property) { p.Type = "castle" }, wantErr: "invalid type: must be apartment, house, or condo"},
		{name: "bad status", mutate: func(p *Property) { p.Status = "sold" }, wantErr: "invalid status: must be available, rented, or maintenance"},
		{name: "negative rooms", mutate: func(p *Property) { p.Bedrooms = -1 }, wantErr: "bedrooms and bathrooms must not be negative"},
		{name: "negative rent", mutate: func(p *Property) { p.Rent = -5 }, wantErr: "rent must not be negative"},
		{name: "bad payment date", mutate: func(p *Property) { p.LastPaymentDate = &bad }, wantErr: "last_payment_date must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestProperty_NormalizeClearedPaymentDate(t *testing.T) {
	empty, paid := "", "2024-04-01"
	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"cleared", &empty, nil},
		{"unset", nil, nil},
		{"set", &paid, &paid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.LastPaymentDate = tt.in
			p.Normalize()
			if (p.LastPaymentDate == nil) != (tt.want == nil) || (p.LastPaymentDate != nil && *p.LastPaymentDate != *tt.want) {
				t.Errorf("LastPaymentDate = %v, want %v", p.LastPaymentDate, tt.want)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("Validate after Normalize: %v", err)
			}
		})
	}
}

func TestRefs(t *testing.T) {
	refs := Refs([]Property{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}})
	if len(refs) != 2 || refs[1] != (Ref{ID: "b", Name: "Beta"}) {
		t.Fatalf("Refs = %+v", refs)
	}
}
