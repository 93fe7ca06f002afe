/*
Package story loads branching stories written in YAML.

A story file declares variables and scenes. Each scene lists the choices
leading out of it, optionally gated by a condition, and the actions that
run when the scene is entered:

	title: The Ferry
	start: dock
	variables:
	  - {id: trust, type: number, default: 0, min: 0, max: 100}
	  - {id: betrayed, type: boolean}
	scenes:
	  - id: dock
	    choices:
	      - id: confide
	        to: cabin
	        fallback: wait
	        when:
	          all:
	            - {var: trust, op: greater_equal, value: 30}
	            - not: betrayed
	      - {id: wait, to: dock}
	    actions:
	      - {type: increment, var: trust, value: 10}
	  - id: cabin

A bare string condition tests the variable with is_true. The "type"
discriminated form written by ExportState is accepted as well.

Graph derives layout nodes and edges from the scenes; Project converts the
story into the document a variables.Manager imports.
*/
package story
