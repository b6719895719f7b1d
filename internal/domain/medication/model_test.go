package medication

import "testing"

func TestMedicines_ValueNil(t *testing.T) {
	v, err := Medicines(nil).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "[]" {
		t.Errorf("expected empty array, got %v", v)
	}
}

func TestMedicines_Scan(t *testing.T) {
	var m Medicines
	if err := m.Scan(`[{"name":"Paracetamol","dosage":"500mg","frequency":"twice daily","days":5}]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(m) != 1 || m[0].Name != "Paracetamol" || m[0].Days != 5 {
		t.Errorf("unexpected medicines %+v", m)
	}

	if err := m.Scan(nil); err != nil || len(m) != 0 {
		t.Errorf("expected empty list from NULL, got %v, %v", m, err)
	}
	if err := m.Scan(42); err == nil {
		t.Error("expected error for unsupported type")
	}
}
