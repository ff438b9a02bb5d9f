package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"afa.directory/internal/directory"
	"afa.directory/internal/importer"
	"afa.directory/internal/store/memory"
)

const legacyExport = `[
  {"name":{"en":"Sara Ahmadi","fa":"سارا احمدی"},"department":{"en":"Steel Production"},"extension":"1203"},
  {"name":{"en":"Ali Rezaei","fa":"علی رضایی"},"department":{"en":"IT Technology"},"extension":1410},
  {"name":{"en":"Reza Karimi","fa":"رضا کریمی"},"department":{"en":"Security"},"extension":"777"},
  {"name":{"en":"No Extension","fa":"بدون داخلی"},"department":{"en":"Finance"}},
  42
]`

func TestImportReadsBackThroughDirectory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	steel, err := store.CreateCompany(ctx, directory.CompanyInput{NameEN: "AFA Steel", NameFA: "فولاد افا"})
	require.NoError(t, err)

	svc := directory.NewService(store, directory.WithLogger(zap.NewNop()))
	_, err = svc.CreateEmployee(ctx, directory.EmployeeInput{NameEN: "Stale", NameFA: "قدیمی", Extension: "1"})
	require.NoError(t, err)

	exp, err := importer.Parse(strings.NewReader(legacyExport))
	require.NoError(t, err)
	sum, err := importer.New(store, importer.WithLogger(zap.NewNop())).Run(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, importer.Summary{Inserted: 3, Failed: 2, Total: 5}, sum)

	employees, err := svc.ListEmployees(ctx, nil)
	require.NoError(t, err)
	require.Len(t, employees, sum.Inserted)
	for _, e := range employees {
		assert.NotEqual(t, "Stale", e.Name.EN)
	}

	inSteel, err := svc.ListEmployees(ctx, &steel.ID)
	require.NoError(t, err)
	require.Len(t, inSteel, 1)
	assert.Equal(t, "Sara Ahmadi", inSteel[0].Name.EN)

	public, err := svc.PublicDirectory(ctx)
	require.NoError(t, err)
	assert.Len(t, public, sum.Inserted)
}
