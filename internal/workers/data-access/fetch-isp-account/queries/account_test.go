package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{
	"sf_id", "ca_cnpj__c", "name", "ca_situacaofinanceira__c", "erp__c", "ca_dataultfaturamento__c",
	"produto_sf_code", "pacote_id", "pacote_valor_unit", "valor_total", "isp_vencimento", "isp_sf_status",
	"tickets_contratados", "tickets_distribuidos", "pacote_metodo", "tickets_metodo", "valor_calculado",
}

func TestFetchAccountRows_ByTaxID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(accountColumns).
		AddRow("001A", "12345678000190", "Fibra Sul", "Adimplente", "IXC", "2024-01-10",
			"HBO MAX", "Básico", "19.10", "13370.00", "2024-02-10", "Ativo",
			"1000", "700", "Acessos", "700", "13370.00").
		AddRow("001A", "12345678000190", "Fibra Sul", "Adimplente", "IXC", "2024-01-10",
			"WATCH LIGHT", "Light", nil, nil, nil, nil,
			"500", "250", nil, "250", nil)

	mock.ExpectQuery(`WHERE c\.ca_cnpj__c = \$1`).
		WithArgs("12345678000190").
		WillReturnRows(rows)

	got, err := NewAccountQuery(db).FetchAccountRows(context.Background(), " 12345678000190 ")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Fibra Sul", got[0].Name.String)
	assert.Equal(t, "19.10", got[0].UnitPrice.String)
	assert.False(t, got[1].UnitPrice.Valid)
	assert.Equal(t, "250", got[1].BillableTickets.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAccountRows_ByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE c\.name ILIKE \$1`).
		WithArgs("%Fibra Sul%").
		WillReturnRows(sqlmock.NewRows(accountColumns))

	got, err := NewAccountQuery(db).FetchAccountRows(context.Background(), "Fibra Sul")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAccountRows_EscapesWildcards(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`c\.name ILIKE \$1 ESCAPE '\\'`).
		WithArgs(`%100\% Fibra\_Net\\%`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err = NewAccountQuery(db).FetchAccountRows(context.Background(), `100% Fibra_Net\`)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAccountRows_RanksPerAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`PARTITION BY c\.id, m\.produto_sf_code .*ORDER BY name, sf_id, produto_sf_code`).
		WithArgs("%Net%").
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err = NewAccountQuery(db).FetchAccountRows(context.Background(), "Net")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAccountRows_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := NewAccountQuery(db)

	_, err = q.FetchAccountRows(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrEmptyIdentifier))

	mock.ExpectQuery(`ranked_products`).WillReturnError(errors.New("connection refused"))
	_, err = q.FetchAccountRows(context.Background(), "Fibra")
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTaxID(t *testing.T) {
	assert.True(t, IsTaxID("12345678000190"))
	assert.False(t, IsTaxID("12.345.678/0001-90"))
	assert.False(t, IsTaxID("Fibra"))
	assert.False(t, IsTaxID(""))
}
