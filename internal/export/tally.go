package export

import (
	"io"

	"github.com/beevik/etree"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

// Ledger names used in the generated vouchers.
const (
	BankLedger    = "Bank Account"
	IncomeLedger  = "Other Income"
	ExpenseLedger = "Sundry Expenses"
)

// WriteTallyXML renders the statement as a Tally import envelope with one
// Receipt or Payment voucher per transaction.
func WriteTallyXML(w io.Writer, st *Statement) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	envelope := doc.CreateElement("ENVELOPE")
	header := envelope.CreateElement("HEADER")
	header.CreateElement("TALLYREQUEST").SetText("Import Data")

	body := envelope.CreateElement("BODY")
	importData := body.CreateElement("IMPORTDATA")
	reqDesc := importData.CreateElement("REQUESTDESC")
	reqDesc.CreateElement("REPORTNAME").SetText("Vouchers")

	reqData := importData.CreateElement("REQUESTDATA")
	for _, t := range st.Transactions {
		msg := reqData.CreateElement("TALLYMESSAGE")
		msg.CreateAttr("xmlns:UDF", "TallyUDF")

		voucherType, counterLedger := "Payment", expenseLedgerFor(t)
		if t.Type == model.TransactionTypeIncome {
			voucherType, counterLedger = "Receipt", IncomeLedger
		}

		v := msg.CreateElement("VOUCHER")
		v.CreateAttr("VCHTYPE", voucherType)
		v.CreateAttr("ACTION", "Create")
		v.CreateElement("DATE").SetText(t.Date.Format("20060102"))
		v.CreateElement("GUID").SetText(t.ID.String())
		v.CreateElement("VOUCHERTYPENAME").SetText(voucherType)
		v.CreateElement("NARRATION").SetText(t.Description)

		amount := t.Amount.StringFixed(2)
		negAmount := t.Amount.Neg().StringFixed(2)

		// Tally records debits as negative amounts with ISDEEMEDPOSITIVE=Yes.
		bankDebit := t.Type == model.TransactionTypeIncome
		addLedgerEntry(v, BankLedger, bankDebit, pick(bankDebit, negAmount, amount))
		addLedgerEntry(v, counterLedger, !bankDebit, pick(!bankDebit, negAmount, amount))
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func addLedgerEntry(v *etree.Element, ledger string, debit bool, amount string) {
	e := v.CreateElement("ALLLEDGERENTRIES.LIST")
	e.CreateElement("LEDGERNAME").SetText(ledger)
	e.CreateElement("ISDEEMEDPOSITIVE").SetText(pick(debit, "Yes", "No"))
	e.CreateElement("AMOUNT").SetText(amount)
}

func expenseLedgerFor(t model.Transaction) string {
	if t.Category == "" || t.Category == "Other" || t.Category == "Uncategorized" {
		return ExpenseLedger
	}
	return t.Category
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
