package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

func person(id int, email, name string) domain.ResumeRecord {
	return domain.ResumeRecord{ID: id, Summary: domain.ResumeSummary{Email: email, Name: name}}
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	a := person(1, "a@x.io", "Ada")
	b := person(2, "b@x.io", "Bob")
	aAgain := person(3, "a@x.io", "Ada")
	c := person(4, "c@x.io", "Cy")

	got := Dedupe([]domain.ResumeRecord{a, b, aAgain, c})
	want := []domain.ResumeRecord{a, b, c}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dedupe result: %+v", got)
	}
}

func TestDedupeIsIdempotent(t *testing.T) {
	input := []domain.ResumeRecord{
		person(1, "", ""),
		person(2, "", ""),
		person(3, "a@x.io", "Ada"),
		person(4, "a@x.io", "ada"),
		person(5, "a@x.io", "Ada"),
	}
	once := Dedupe(input)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedupe is not idempotent: %+v vs %+v", once, twice)
	}
	ids := make([]int, 0, len(once))
	for _, record := range once {
		ids = append(ids, record.ID)
	}
	if !reflect.DeepEqual(ids, []int{1, 3, 4}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if got := Dedupe(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestResumeListDedupes(t *testing.T) {
	api := &resumesAPIFake{records: []domain.ResumeRecord{person(1, "a@x.io", "Ada"), person(2, "a@x.io", "Ada")}}
	records, err := NewResumeUseCase(api).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != 1 {
		t.Fatalf("unexpected records: %+v", records)
	}

	api.listErr = errServerDown
	if _, err := NewResumeUseCase(api).List(context.Background()); !errors.Is(err, errServerDown) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestResumeDeleteRequiresIDs(t *testing.T) {
	api := &resumesAPIFake{}
	uc := NewResumeUseCase(api)

	if err := uc.Delete(context.Background(), nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := uc.Delete(context.Background(), []int{4, 9}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(api.deleted, [][]int{{4, 9}}) {
		t.Fatalf("unexpected delete calls: %v", api.deleted)
	}
}
