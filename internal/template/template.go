// Package template expands a resolved document type into its section
// skeleton, the first input of the context merge.
package template

import (
	"strings"

	"github.com/lexfoundry/draftgate/internal/merge"
	"github.com/lexfoundry/draftgate/internal/model"
)

// Expand returns the section profile for the given document type. Unknown
// types get a conservative generic skeleton rather than nothing, so the
// merge always has a structure to build on.
func Expand(docType string) merge.Template {
	dt := strings.ToLower(strings.TrimSpace(docType))
	switch dt {
	case "bail_application":
		return bailProfile()
	case "writ_petition":
		return writProfile()
	case "civil_suit":
		return civilSuitProfile()
	case "cheque_bounce_complaint":
		return chequeBounceProfile()
	case "legal_notice":
		return legalNoticeProfile()
	case "rental_agreement":
		return rentalProfile()
	case "affidavit":
		return affidavitProfile()
	default:
		return genericProfile(dt)
	}
}

func section(id, title string, order int, sectionType string, required bool) model.Section {
	return model.Section{
		ID: id, Title: title, Order: order,
		SectionType: sectionType, Required: required, Source: "template",
	}
}

func bailProfile() merge.Template {
	return merge.Template{
		DocType: "bail_application",
		Sections: []model.Section{
			section("court_header", "In the Court of", 10, "header", true),
			section("parties", "Applicant and State", 20, "parties", true),
			section("fir_details", "FIR Details", 30, "body", true),
			section("facts_of_case", "Brief Facts of the Case", 40, "body", true),
			section("grounds", "Grounds for Bail", 50, "body", true),
			section("undertakings", "Undertakings", 60, "body", false),
		},
	}
}

func writProfile() merge.Template {
	return merge.Template{
		DocType: "writ_petition",
		Sections: []model.Section{
			section("court_header", "In the High Court of", 10, "header", true),
			section("parties", "Petitioner and Respondents", 20, "parties", true),
			section("jurisdiction_statement", "Statement of Jurisdiction", 30, "body", true),
			section("facts_of_case", "Facts of the Case", 40, "body", true),
			section("grounds", "Grounds", 50, "body", true),
			section("interim_relief", "Interim Relief", 60, "body", false),
		},
	}
}

func civilSuitProfile() merge.Template {
	return merge.Template{
		DocType: "civil_suit",
		Sections: []model.Section{
			section("court_header", "In the Court of", 10, "header", true),
			section("parties", "Plaintiff and Defendant", 20, "parties", true),
			section("plaint", "Plaint", 30, "body", true),
			section("cause_of_action", "Cause of Action", 40, "body", true),
			section("valuation", "Valuation and Court Fee", 50, "body", true),
			section("limitation", "Limitation", 60, "body", false),
		},
	}
}

func chequeBounceProfile() merge.Template {
	return merge.Template{
		DocType: "cheque_bounce_complaint",
		Sections: []model.Section{
			section("court_header", "In the Court of", 10, "header", true),
			section("parties", "Complainant and Accused", 20, "parties", true),
			section("transaction_details", "Transaction and Cheque Details", 30, "body", true),
			section("dishonour_details", "Dishonour and Statutory Notice", 40, "body", true),
			section("cause_of_action", "Cause of Action", 50, "body", true),
		},
	}
}

func legalNoticeProfile() merge.Template {
	return merge.Template{
		DocType: "legal_notice",
		Sections: []model.Section{
			section("notice_header", "Legal Notice", 10, "header", true),
			section("addressee", "To", 20, "parties", true),
			section("facts_of_case", "Facts", 30, "body", true),
			section("demand", "Demand", 40, "body", true),
			section("consequences", "Consequences of Non-Compliance", 50, "body", false),
		},
	}
}

func rentalProfile() merge.Template {
	return merge.Template{
		DocType: "rental_agreement",
		Sections: []model.Section{
			section("agreement_header", "Rental Agreement", 10, "header", true),
			section("parties", "Lessor and Lessee", 20, "parties", true),
			section("property_description", "Schedule of Property", 30, "body", true),
			section("rent_and_deposit", "Rent and Security Deposit", 40, "body", true),
			section("term_and_termination", "Term and Termination", 50, "body", true),
			section("covenants", "Covenants", 60, "body", false),
		},
	}
}

func affidavitProfile() merge.Template {
	return merge.Template{
		DocType: "affidavit",
		Sections: []model.Section{
			section("affidavit_header", "Affidavit", 10, "header", true),
			section("deponent", "Deponent", 20, "parties", true),
			section("statements", "Statements", 30, "body", true),
			section("verification", "Verification", 40, "verification", true),
		},
	}
}

func genericProfile(docType string) merge.Template {
	return merge.Template{
		DocType: docType,
		Sections: []model.Section{
			section("title", "Title", 10, "header", true),
			section("parties", "Parties", 20, "parties", true),
			section("body", "Body", 30, "body", true),
		},
	}
}
