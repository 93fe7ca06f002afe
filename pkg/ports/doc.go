/*
Package ports defines the driven ports (interfaces) around the arbor core.

The condition, variables and layout packages perform no I/O. Hosts that
persist projects or share them between replicas plug in through these
interfaces.

# Key Interfaces

  - ProjectStore: persists the export document of a variables.Manager.
  - DistributedLocker: serializes access to one project across instances.
*/
package ports
