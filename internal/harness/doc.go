// Package harness runs declarative transform scenarios.
//
// A scenario describes a record set in YAML, runs the transform over it
// with a fixed run ID and clock, and checks the outcome against the
// scenario's expectations. Scenarios marked golden also compare a listing
// of the output set against testdata/golden/<name>.golden.
//
// # Scenario Format
//
//	name: single_call_site
//	description: "A supplier call site is pregenerated"
//	module: app.base
//	golden: true
//	records:
//	  - name: app/Main
//	    methods:
//	      - name: run
//	        type: "()fn/Supplier"
//	        code:
//	          - lambda:
//	              name: get
//	              type: "()fn/Supplier"
//	              iface: "()lang/Object"
//	              impl: "static/app/Main::lambda$run$0()lang/String"
//	              dynamic: "()lang/String"
//	          - return: fn/Supplier
//	expect:
//	  generated: [app/Main$$Lambda$0]
//	  members:
//	    app/Main: [app/Main$$Lambda$0]
//
// # Instructions
//
// Each code element sets exactly one of: lambda, alt_lambda, load, const,
// dup, return.
//
// # Expectations
//
//   - error: the transform fails with this error code (GROUP_CONFLICT, ...)
//   - rewritten, generated, unresolved: exact report lists
//   - failures: call-site error codes in report order
//   - members: exact member list of each named host; [] means none
//   - unchanged: records whose output bytes equal their input bytes
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
