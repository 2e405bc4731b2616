// Package bsaonline looks up utility bills on the BSA Online municipal
// payment portal.
//
// The portal has no API and its markup is not versioned, so a lookup is a
// short guided walk through it:
//  1. navigate to the municipality's payment search entry point.
//  2. submit the account number form, or the address form.
//  3. triage the response: no records, a detail page or a results listing
//     (in which case the first plausible result is followed).
//  4. read the rendered text of the detail page and run an ordered list of
//     extraction rules over it.
//  5. normalize the raw strings into a billing.Snapshot.
//
// Every step takes the page as it is and never assumes the previous step
// left it somewhere, which is why each search re-navigates first.
package bsaonline
